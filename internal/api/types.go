package api

// Credentials identify the current session. The secret is resent with every
// request; nothing here is ever written to disk.
type Credentials struct {
	Username string
	Password string
}

// Upload is one ingested CSV and its derived summary as reported by the
// backend. Records are immutable; the backend replaces them wholesale.
type Upload struct {
	ID        int64   `json:"id"`
	Filename  string  `json:"filename"`
	Summary   Summary `json:"summary"`
	CreatedAt string  `json:"created_at"`
}

// Summary holds the derived statistics for one upload.
type Summary struct {
	TotalCount       int            `json:"total_count"`
	TypeDistribution map[string]int `json:"type_distribution"`
	Averages         Averages       `json:"averages"`
}

// Averages holds the mean reading per measured parameter.
type Averages struct {
	Flowrate    float64 `json:"flowrate"`
	Pressure    float64 `json:"pressure"`
	Temperature float64 `json:"temperature"`
}

// Row is one reading from the uploaded CSV. Column names are backend-defined
// and vary between uploads, so rows stay open maps.
type Row map[string]any

// dataResponse is the envelope returned by GET /data/{id}/.
type dataResponse struct {
	Data     []Row  `json:"data"`
	Filename string `json:"filename"`
}
