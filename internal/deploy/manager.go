package deploy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/ochronus/gonekoweb/internal/config"
	"github.com/ochronus/gonekoweb/internal/services/nekoweb"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Manager uploads a local directory tree to a Nekoweb site.
type Manager struct {
	config     *config.Config
	api        nekoweb.API
	fs         afero.Fs
	logger     *logrus.Logger
	skip       []string
	uploadChan chan uploadMessage

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a new deploy manager reading from fs. A nil fs reads
// the local disk.
func NewManager(cfg *config.Config, logger *logrus.Logger, api nekoweb.API, fs afero.Fs) *Manager {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	return &Manager{
		config:     cfg,
		api:        api,
		fs:         fs,
		logger:     logger,
		skip:       DefaultSkipNames,
		uploadChan: make(chan uploadMessage, 100),
	}
}

// SetSkipNames replaces the list of names never deployed.
func (m *Manager) SetSkipNames(names []string) {
	m.skip = names
}

// Targets walks localRoot and returns what would be deployed under
// remoteRoot. Directories always precede their contents.
func (m *Manager) Targets(localRoot, remoteRoot string) ([]Target, error) {
	info, err := m.fs.Stat(localRoot)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", localRoot)
	}

	remoteRoot = path.Clean("/" + remoteRoot)

	var targets []Target
	err = afero.Walk(m.fs, localRoot, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p == localRoot {
			return nil
		}
		if ShouldSkip(info.Name(), m.skip) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(localRoot, p)
		if err != nil {
			return err
		}
		target := Target{
			Local:  p,
			Remote: path.Join(remoteRoot, filepath.ToSlash(rel)),
		}
		if info.IsDir() {
			target.TargetType = TargetTypeDirectory
		} else if info.Mode().IsRegular() {
			target.TargetType = TargetTypeFile
			target.Size = info.Size()
		} else {
			return nil
		}
		targets = append(targets, target)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking %s: %w", localRoot, err)
	}

	return targets, nil
}

// Deploy uploads the contents of localRoot into remoteRoot. Folders are
// created one by one, parents first, then files are uploaded by
// config.UploadWorkers workers. It returns an error if any step failed;
// nothing already uploaded is rolled back.
func (m *Manager) Deploy(ctx context.Context, localRoot, remoteRoot string) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	targets, err := m.Targets(localRoot, remoteRoot)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	remoteRoot = path.Clean("/" + remoteRoot)
	if remoteRoot != "/" {
		if err := m.createFolder(ctx, remoteRoot); err != nil {
			return report, err
		}
	}

	var files []Target
	for _, target := range targets {
		if target.TargetType != TargetTypeDirectory {
			files = append(files, target)
			continue
		}
		if err := m.createFolder(ctx, target.Remote); err != nil {
			return report, err
		}
		report.Folders++
	}

	m.start(ctx)
	defer m.stop()

	doneChans := make([]chan UploadStatus, len(files))
	for i, target := range files {
		doneChans[i] = make(chan UploadStatus, 1)
		select {
		case <-m.ctx.Done():
			return report, m.ctx.Err()
		case m.uploadChan <- uploadMessage{Target: target, DoneChan: doneChans[i]}:
		}
	}

	for i, doneChan := range doneChans {
		select {
		case <-m.ctx.Done():
			return report, m.ctx.Err()
		case status := <-doneChan:
			if status != UploadStatusSuccess {
				report.Failed++
				continue
			}
			report.Uploaded++
			if files[i].IsBig(m.config.BigFileThreshold) {
				report.Big++
			}
		}
	}

	m.logger.Infof("deploy of %s done: %s", localRoot, report)
	if report.Failed > 0 {
		return report, fmt.Errorf("%d of %d uploads failed", report.Failed, len(files))
	}
	return report, nil
}

// createFolder creates a remote folder. A folder that already exists is
// not an error.
func (m *Manager) createFolder(ctx context.Context, remote string) error {
	if _, err := m.api.CreateFolder(ctx, remote); err != nil {
		if apiErr, ok := nekoweb.AsAPIError(err); ok && apiErr.StatusCode == http.StatusBadRequest {
			m.logger.Debugf("%s: folder already exists", remote)
			return nil
		}
		return fmt.Errorf("error creating folder %s: %w", remote, err)
	}
	m.logger.Infof("%s: folder created", remote)
	return nil
}

func (m *Manager) start(parent context.Context) {
	m.ctx, m.cancel = context.WithCancel(parent)

	workers := m.config.UploadWorkers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.uploadWorker(i)
	}
}

// stop signals all workers to exit and waits for them to finish.
func (m *Manager) stop() {
	m.cancel()
	m.wg.Wait()
}

// uploadWorker handles file uploads
func (m *Manager) uploadWorker(id int) {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case msg := <-m.uploadChan:
			status := m.uploadTarget(&msg.Target)
			select {
			case <-m.ctx.Done():
				return
			case msg.DoneChan <- status:
			}
		}
	}
}

// uploadTarget uploads a single file, switching to the big-file flow above
// the configured threshold.
func (m *Manager) uploadTarget(target *Target) UploadStatus {
	if target.TargetType != TargetTypeFile {
		return UploadStatusFailed
	}

	f, err := m.fs.Open(target.Local)
	if err != nil {
		m.logger.Errorf("%s: open failed: %v", target, err)
		return UploadStatusFailed
	}
	defer f.Close()

	if target.IsBig(m.config.BigFileThreshold) {
		m.logger.Infof("%s: big upload started (%d bytes)", target, target.Size)
		_, err = m.api.UploadStream(m.ctx, target.Remote, f)
	} else {
		var data []byte
		data, err = io.ReadAll(f)
		if err == nil {
			_, err = m.api.UploadFile(m.ctx, target.Remote, data)
		}
	}
	if err != nil {
		m.logger.Errorf("%s: upload failed: %v", target, err)
		return UploadStatusFailed
	}

	m.logger.Infof("%s: uploaded", target)
	return UploadStatusSuccess
}
