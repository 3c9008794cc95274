package komodo

// ObjectID is the Mongo-style identifier wrapper the API uses for update
// documents.
type ObjectID struct {
	OID string `json:"$oid"`
}

// Update is the orchestrator's record of one scheduled execution. Only the
// fields this tool reads are modelled; the wire document carries more.
type Update struct {
	ID        ObjectID   `json:"_id"`
	Operation string     `json:"operation"`
	Status    string     `json:"status"`
	Operator  string     `json:"operator"`
	Success   bool       `json:"success"`
	StartTS   int64      `json:"start_ts"`
	EndTS     int64      `json:"end_ts"`
	Logs      []LogEntry `json:"logs"`
}

// LogEntry is one stage log attached to an update.
type LogEntry struct {
	Stage   string `json:"stage"`
	Stdout  string `json:"stdout"`
	Stderr  string `json:"stderr"`
	Success bool   `json:"success"`
}

// Update statuses as reported by the API. Complete is terminal; the success
// flag on the update says whether the operation actually worked.
const (
	StatusQueued     = "Queued"
	StatusInProgress = "InProgress"
	StatusComplete   = "Complete"
)

// Execute request types.
const (
	RequestDeployStack  = "DeployStack"
	RequestRunProcedure = "RunProcedure"
	requestGetUpdate    = "GetUpdate"
)
