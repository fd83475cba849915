package transfer

import "fmt"

// ImportResult reports the outcome of a bulk import or a year rollover.
type ImportResult struct {
	Success        bool     `json:"success"`
	Message        string   `json:"message"`
	TotalProcessed int      `json:"total_processed"`
	Successful     int      `json:"successful"`
	Failed         int      `json:"failed"`
	Errors         []string `json:"errors"`
}

// failure is the result of an import that could not process its input at all.
func failure(msg string, err error) ImportResult {
	return ImportResult{
		Message: msg,
		Failed:  1,
		Errors:  []string{err.Error()},
	}
}

func newResult(noun string, total, successful int, errs []string) ImportResult {
	if errs == nil {
		errs = []string{}
	}
	res := ImportResult{
		Success:        len(errs) == 0,
		TotalProcessed: total,
		Successful:     successful,
		Failed:         len(errs),
		Errors:         errs,
	}
	if res.Success {
		res.Message = fmt.Sprintf("%d %s imported successfully", successful, noun)
	} else {
		res.Message = "import completed with errors"
	}
	return res
}
