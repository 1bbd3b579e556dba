/**************************************************************************************************
** Package archive packs processed images into a single zip archive.
**************************************************************************************************/
package archive

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/majorfi/photo-stamp/pkg/batch"
	"github.com/majorfi/photo-stamp/pkg/utils"
)

// CompressionLevel is the DEFLATE level of every entry.
const CompressionLevel = 6

/**************************************************************************************************
** Write streams the outputs into w as a zip archive. Entries keep the order of the outputs and are
** named by utils.OutputName: 1.jpg, 2.jpg, ... or the original base names when keepNames is set.
** Duplicate names produced by keepNames get a numeric suffix.
**
** @param w - Destination
** @param outputs - Processed images in upload order
** @param keepNames - Name entries after the source files
** @return error - Any write error
**************************************************************************************************/
func Write(w io.Writer, outputs []batch.Output, keepNames bool) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, CompressionLevel)
	})

	modified := time.Now()
	seen := make(map[string]int, len(outputs))
	for i, output := range outputs {
		name := uniqueName(utils.OutputName(i, output.Name, keepNames), seen)
		entry, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", name, err)
		}
		if _, err := entry.Write(output.Data); err != nil {
			return fmt.Errorf("failed to write %s to archive: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}

/**************************************************************************************************
** Zip returns the archive as a byte slice.
**************************************************************************************************/
func Zip(outputs []batch.Output, keepNames bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, outputs, keepNames); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

/**************************************************************************************************
** Save writes the archive to a file, creating or truncating it.
**************************************************************************************************/
func Save(path string, outputs []batch.Output, keepNames bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Write(f, outputs, keepNames); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// uniqueName appends -2, -3, ... before the extension of names already used.
func uniqueName(name string, seen map[string]int) string {
	seen[name]++
	if seen[name] == 1 {
		return name
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	candidate := fmt.Sprintf("%s-%d%s", base, seen[name], ext)
	seen[candidate]++
	return candidate
}
