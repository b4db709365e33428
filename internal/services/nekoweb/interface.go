package nekoweb

import (
	"context"
	"io"
)

// API defines the authenticated operations of the Nekoweb client.
// It mirrors AuthClient so it can be mocked in tests.
type API interface {
	CreateFile(ctx context.Context, pathname string) (*Response, error)
	CreateFolder(ctx context.Context, pathname string) (*Response, error)
	UploadFile(ctx context.Context, pathname string, data []byte) (*Response, error)
	UploadStream(ctx context.Context, pathname string, r io.Reader) (*Response, error)
	ImportStream(ctx context.Context, r io.Reader) (*Response, error)
	List(ctx context.Context, pathname string) ([]File, error)
	Rename(ctx context.Context, from, to string) (*Response, error)
	Edit(ctx context.Context, pathname string, content []byte) (*Response, error)
	Delete(ctx context.Context, pathname string) (*Response, error)
	GetSite(ctx context.Context, username string) (*Site, error)
	GetLimits(ctx context.Context) (*Limits, error)
}
