package ftp

import (
	"github.com/galerija/imagepipe/internal/config"
)

// Exporter pushes derivative files to the remote FTP target. Each call
// opens its own session so a stuck transfer cannot poison later exports.
type Exporter struct {
	cfg config.FTP
}

func NewExporter(cfg config.FTP) *Exporter {
	return &Exporter{cfg: cfg}
}

// Export uploads localPath to remotePath. The session is always closed,
// whether or not the transfer succeeded.
func (e *Exporter) Export(localPath, remotePath string) error {
	sess, err := Dial(e.cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	return sess.Upload(localPath, remotePath)
}
