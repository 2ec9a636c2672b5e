package handler

// Route type
type Route string

const (
	// RouteStore starts archiving and compressing inputs
	RouteStore Route = "store"
	// RouteRetrieve starts restoring an artifact
	RouteRetrieve Route = "retrieve"
	// RouteOperations reports or cancels a running operation
	RouteOperations Route = "operations"
	// RouteRecords lists the record catalog
	RouteRecords Route = "records"
)
