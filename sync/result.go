package sync

import "fmt"

// Failure records one record that could not be processed and why.
type Failure struct {
	Ref string `json:"ref"`
	Err string `json:"error"`
}

// BatchResult is the outcome of one best-effort batch: which records made
// it, which did not. Loops that isolate per-record failures return one of
// these instead of only logging.
type BatchResult struct {
	Succeeded []string  `json:"succeeded"`
	Failed    []Failure `json:"failed"`
}

func NewBatchResult() *BatchResult {
	return &BatchResult{
		Succeeded: []string{},
		Failed:    []Failure{},
	}
}

func (r *BatchResult) AddSuccess(ref string) {
	r.Succeeded = append(r.Succeeded, ref)
}

func (r *BatchResult) AddFailure(ref string, err error) {
	r.Failed = append(r.Failed, Failure{Ref: ref, Err: err.Error()})
}

// Ok reports whether every record in the batch succeeded.
func (r *BatchResult) Ok() bool {
	return len(r.Failed) == 0
}

func (r *BatchResult) Summary() string {
	return fmt.Sprintf("%d/%d successful", len(r.Succeeded), len(r.Succeeded)+len(r.Failed))
}

// FirstFailure returns the first recorded failure, or nil.
func (r *BatchResult) FirstFailure() *Failure {
	if len(r.Failed) == 0 {
		return nil
	}
	return &r.Failed[0]
}

// Merge folds another batch into this one.
func (r *BatchResult) Merge(other *BatchResult) {
	if other == nil {
		return
	}
	r.Succeeded = append(r.Succeeded, other.Succeeded...)
	r.Failed = append(r.Failed, other.Failed...)
}

// Tally summarizes one image download phase, the unit of observability for
// a sync run's image work.
type Tally struct {
	Success    int           `json:"success"`
	Failed     int           `json:"failed"`
	Successful []TallyDetail `json:"successful"`
	FailedList []TallyDetail `json:"failed_items"`
}

// TallyDetail identifies one downloaded (or failed) item.
type TallyDetail struct {
	ID        int    `json:"id"`
	Ref       string `json:"ref"`
	URL       string `json:"url"`
	LocalPath string `json:"local_path,omitempty"`
	Err       string `json:"error,omitempty"`
}

func (t *Tally) AddSuccess(detail TallyDetail) {
	t.Success++
	t.Successful = append(t.Successful, detail)
}

func (t *Tally) AddFailure(detail TallyDetail) {
	t.Failed++
	t.FailedList = append(t.FailedList, detail)
}
