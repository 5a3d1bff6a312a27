package domain

import "io"

// UploadFile is one image of a batch. Open is called once by the pipeline,
// which also closes the returned reader.
type UploadFile struct {
	Filename    string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

type FailedDetail struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

type BatchReport struct {
	Success       int            `json:"success"`
	Failed        int            `json:"failed"`
	Total         int            `json:"total"`
	FailedDetails []FailedDetail `json:"failed_details"`
}

// FileOutcome is reported after each file of a batch completes.
type FileOutcome struct {
	Index    int
	Filename string
	Issue    *Issue
	Err      error
}
