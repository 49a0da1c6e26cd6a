package dynamo

// DynamoDB attribute names referenced from update expressions.
const (
	fieldReadState = "read_state"
)
