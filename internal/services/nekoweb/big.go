package nekoweb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
)

// AfterUpload selects how a big-file session is finalized. It is
// implemented by Move and Import only.
type AfterUpload interface {
	finalize(ctx context.Context, bf *BigFile) (*Response, error)
}

// Move finalizes a big-file session by moving the assembled file to
// Pathname. The path is sent as given, without normalization.
type Move struct {
	Pathname string
}

// Import finalizes a big-file session by importing it in place; the server
// extracts zip archives into the site.
type Import struct{}

// BigFile is a server-side upload session. It lives for one Upload call.
// If Upload fails half way the session is left on the server as is; there
// is no cleanup endpoint.
type BigFile struct {
	id     string
	client *AuthClient
}

type createBigFileResponse struct {
	ID string `json:"id"`
}

// NewBigFile opens a new upload session.
func NewBigFile(ctx context.Context, client *AuthClient) (*BigFile, error) {
	resp, err := client.get(ctx, "/files/big/create")
	if err != nil {
		return nil, fmt.Errorf("error creating big file: %w", err)
	}

	var result createBigFileResponse
	if err := decodeJSON(resp, &result); err != nil {
		return nil, fmt.Errorf("error creating big file: %w", err)
	}

	return &BigFile{id: result.ID, client: client}, nil
}

// ID returns the server-assigned session id.
func (bf *BigFile) ID() string {
	return bf.id
}

func (bf *BigFile) append(ctx context.Context, chunk []byte) (*Response, error) {
	return bf.client.postMultipart(ctx, "/files/big/append", func(w *multipart.Writer) error {
		if err := w.WriteField("id", bf.id); err != nil {
			return err
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"`)
		h.Set("Content-Type", "application/octet-stream")
		part, err := w.CreatePart(h)
		if err != nil {
			return err
		}
		_, err = part.Write(chunk)
		return err
	})
}

// Upload streams r to the session one read at a time, then finalizes it
// with after. Appends are strictly sequential. Finalize runs even when r is
// empty.
func (bf *BigFile) Upload(ctx context.Context, r io.Reader, after AfterUpload) (*Response, error) {
	if after == nil {
		return nil, errors.New("big file upload needs a finalize step")
	}

	buf := make([]byte, bf.client.chunkSize)
	chunks := 0
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			if _, err := bf.append(ctx, buf[:n]); err != nil {
				return nil, fmt.Errorf("error appending chunk %d to big file %s: %w", chunks, bf.id, err)
			}
			chunks++
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("error reading big file %s source: %w", bf.id, readErr)
		}
	}

	bf.client.logger.WithField("id", bf.id).Debugf("big file: %d chunks appended", chunks)

	return after.finalize(ctx, bf)
}

func (m Move) finalize(ctx context.Context, bf *BigFile) (*Response, error) {
	form := url.Values{}
	form.Set("id", bf.id)
	form.Set("pathname", m.Pathname)

	resp, err := bf.client.postForm(ctx, "/files/big/move", form)
	if err != nil {
		return nil, fmt.Errorf("error moving big file %s to %s: %w", bf.id, m.Pathname, err)
	}
	return resp, nil
}

func (Import) finalize(ctx context.Context, bf *BigFile) (*Response, error) {
	resp, err := bf.client.doRequest(ctx, http.MethodPost, "/files/import/"+url.PathEscape(bf.id), bf.client.apiKey, nil, "")
	if err != nil {
		return nil, fmt.Errorf("error importing big file %s: %w", bf.id, err)
	}
	return resp, nil
}
