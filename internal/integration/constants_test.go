package integration_test

const (
	TestShowId        = "S1"
	TestShowName      = "Evening Premiere"
	TestShowBasePrice = "200.00"

	TestUserId      = "customer-42"
	TestOtherUserId = "customer-77"
)

var TestShowLayout = []string{"A1", "A2", "A3", "B1", "B2", "B3"}
