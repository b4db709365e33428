package nekoweb

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"strconv"
	"strings"
)

// defaultFilename is used by UploadFile when the path has no usable component.
const defaultFilename = "file.bin"

// File represents an entry returned by a folder listing
type File struct {
	Name string `json:"name"`
	Dir  bool   `json:"dir"`
}

func (c *AuthClient) create(ctx context.Context, pathname string, isFolder bool) (*Response, error) {
	form := url.Values{}
	form.Set("pathname", pathname)
	form.Set("isFolder", strconv.FormatBool(isFolder))

	resp, err := c.postForm(ctx, "/files/create", form)
	if err != nil {
		return nil, fmt.Errorf("error creating %s: %w", pathname, err)
	}
	return resp, nil
}

// CreateFile creates an empty file at pathname.
func (c *AuthClient) CreateFile(ctx context.Context, pathname string) (*Response, error) {
	return c.create(ctx, pathname, false)
}

// CreateFolder creates a folder at pathname.
func (c *AuthClient) CreateFolder(ctx context.Context, pathname string) (*Response, error) {
	return c.create(ctx, pathname, true)
}

// splitUploadPath splits p into the destination folder and the file name.
// Empty, "." and ".." components are dropped, not resolved, so "a/../b.txt"
// becomes ("/a", "b.txt").
func splitUploadPath(p string) (dir, name string) {
	var parts []string
	for _, part := range strings.Split(p, "/") {
		switch part {
		case "", ".", "..":
			continue
		}
		parts = append(parts, part)
	}

	if len(parts) == 0 {
		return "/", defaultFilename
	}

	name = parts[len(parts)-1]
	return "/" + strings.Join(parts[:len(parts)-1], "/"), name
}

// UploadFile uploads data to pathname in a single multipart request.
func (c *AuthClient) UploadFile(ctx context.Context, pathname string, data []byte) (*Response, error) {
	dir, name := splitUploadPath(pathname)

	resp, err := c.postMultipart(ctx, "/files/upload", func(w *multipart.Writer) error {
		if err := w.WriteField("pathname", dir); err != nil {
			return err
		}
		part, err := w.CreateFormFile("files", name)
		if err != nil {
			return err
		}
		_, err = part.Write(data)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error uploading %s: %w", pathname, err)
	}
	return resp, nil
}

// UploadStream uploads r through a big-file session and moves the result
// to pathname.
func (c *AuthClient) UploadStream(ctx context.Context, pathname string, r io.Reader) (*Response, error) {
	bf, err := NewBigFile(ctx, c)
	if err != nil {
		return nil, err
	}
	return bf.Upload(ctx, r, Move{Pathname: pathname})
}

// ImportStream uploads r through a big-file session and asks the server to
// import it (a zip archive is extracted into the site root).
func (c *AuthClient) ImportStream(ctx context.Context, r io.Reader) (*Response, error) {
	bf, err := NewBigFile(ctx, c)
	if err != nil {
		return nil, err
	}
	return bf.Upload(ctx, r, Import{})
}

// List returns the entries of the folder at pathname, in server order.
func (c *AuthClient) List(ctx context.Context, pathname string) ([]File, error) {
	query := url.Values{}
	query.Set("pathname", pathname)

	resp, err := c.get(ctx, "/files/readfolder?"+query.Encode())
	if err != nil {
		return nil, fmt.Errorf("error listing %s: %w", pathname, err)
	}

	var files []File
	if err := decodeJSON(resp, &files); err != nil {
		return nil, fmt.Errorf("error listing %s: %w", pathname, err)
	}
	return files, nil
}

// Rename moves the file or folder at from to to.
func (c *AuthClient) Rename(ctx context.Context, from, to string) (*Response, error) {
	form := url.Values{}
	form.Set("pathname", from)
	form.Set("newpathname", to)

	resp, err := c.postForm(ctx, "/files/rename", form)
	if err != nil {
		return nil, fmt.Errorf("error renaming %s to %s: %w", from, to, err)
	}
	return resp, nil
}

// Edit replaces the content of the file at pathname.
func (c *AuthClient) Edit(ctx context.Context, pathname string, content []byte) (*Response, error) {
	resp, err := c.postMultipart(ctx, "/files/edit", func(w *multipart.Writer) error {
		if err := w.WriteField("pathname", pathname); err != nil {
			return err
		}
		part, err := w.CreateFormField("content")
		if err != nil {
			return err
		}
		_, err = part.Write(content)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error editing %s: %w", pathname, err)
	}
	return resp, nil
}

// Delete removes the file or folder at pathname.
func (c *AuthClient) Delete(ctx context.Context, pathname string) (*Response, error) {
	form := url.Values{}
	form.Set("pathname", pathname)

	resp, err := c.postForm(ctx, "/files/delete", form)
	if err != nil {
		return nil, fmt.Errorf("error deleting %s: %w", pathname, err)
	}
	return resp, nil
}
