package kafka

const (
	TopicDocuments     = "backoffice.documents"
	TopicNotifications = "backoffice.notifications"
)

// PartitionKey keeps every event of one document on one partition, in order.
func PartitionKey(id string) []byte { return []byte(id) }
