package model

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        string `json:"role"`
}

// UploadReport is the response of a CSV ingestion run. RecordsProcessed counts
// every data row seen; RecordsCreated counts successfully upserted records
// after intra-batch deduplication; RecordsFailed counts rows that failed
// validation plus rows belonging to batches the store rejected.
type UploadReport struct {
	Message          string   `json:"message"`
	RecordsProcessed int      `json:"records_processed"`
	RecordsCreated   int      `json:"records_created"`
	RecordsFailed    int      `json:"records_failed"`
	Errors           []string `json:"errors,omitempty"`
}

// ReplayJob asks the ingestion worker to re-run an archived CSV payload.
type ReplayJob struct {
	S3Key       string `json:"s3_key"`
	RequestedBy string `json:"requested_by"`
}

type ReplayRequest struct {
	S3Key string `json:"s3_key"`
}
