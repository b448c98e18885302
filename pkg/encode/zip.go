package encode

import (
	"archive/zip"
	"io"
	"os"
	"sync"
)

// archiveLock serializes appends to the shared archive. Appends are
// sequence-local but archive-global: concurrent Save calls for different
// sequences may target the same archive path.
var archiveLock sync.Mutex

// appendToArchive adds src to the zip at zipPath under arcname, creating the
// archive if it doesn't exist yet. Go's archive/zip can't append in place,
// so an existing archive is rewritten through a temp file: prior entries are
// copied, an entry with the same arcname is replaced, and the temp file is
// renamed over the original.
func appendToArchive(zipPath, src, arcname string) error {
	archiveLock.Lock()
	defer archiveLock.Unlock()

	tmpPath := zipPath + ".tmp"
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	defer os.Remove(tmpPath)

	zw := zip.NewWriter(tmp)
	ok := false
	defer func() {
		if !ok {
			zw.Close()
			tmp.Close()
		}
	}()

	if existing, err := zip.OpenReader(zipPath); err == nil {
		for _, entry := range existing.File {
			if entry.Name == arcname {
				continue
			}
			if err := zw.Copy(entry); err != nil {
				existing.Close()
				return err
			}
		}
		existing.Close()
	} else if !os.IsNotExist(err) {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	w, err := zw.Create(arcname)
	if err != nil {
		in.Close()
		return err
	}
	if _, err := io.Copy(w, in); err != nil {
		in.Close()
		return err
	}
	in.Close()

	if err := zw.Close(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	ok = true
	return os.Rename(tmpPath, zipPath)
}
