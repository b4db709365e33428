package deploy

import (
	"fmt"
	"strings"
)

// TargetType represents the type of deploy target
type TargetType int

const (
	TargetTypeDirectory TargetType = iota
	TargetTypeFile
)

// DefaultSkipNames are never deployed.
var DefaultSkipNames = []string{".git", ".DS_Store"}

// Target is a local file or directory and where it lands on the site.
type Target struct {
	Local      string
	Remote     string
	TargetType TargetType
	Size       int64
}

// String returns a formatted string representation of the target
func (t *Target) String() string {
	return fmt.Sprintf("[%s -> %s]", t.Local, t.Remote)
}

// IsBig reports whether the target goes through the big-file upload.
func (t *Target) IsBig(threshold int64) bool {
	return t.TargetType == TargetTypeFile && threshold > 0 && t.Size > threshold
}

// UploadStatus represents the result of a single upload
type UploadStatus int

const (
	UploadStatusSuccess UploadStatus = iota
	UploadStatusFailed
)

// uploadMessage asks a worker to upload one target.
type uploadMessage struct {
	Target   Target
	DoneChan chan UploadStatus
}

// Report summarizes a finished deploy.
type Report struct {
	Folders  int
	Uploaded int
	Big      int
	Failed   int
}

func (r *Report) String() string {
	return fmt.Sprintf("%d folders, %d files uploaded (%d big), %d failed", r.Folders, r.Uploaded, r.Big, r.Failed)
}

// ShouldSkip checks if a file or directory name is in the skip list.
func ShouldSkip(name string, skip []string) bool {
	lowerName := strings.ToLower(name)
	for _, s := range skip {
		if strings.ToLower(s) == lowerName {
			return true
		}
	}
	return false
}
