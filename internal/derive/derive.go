// Package derive turns one source image into a set of resized variants.
package derive

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// Profile names one derivative size: the storage subfolder it lands in
// and the target width. Height follows the aspect ratio. Export marks
// profiles whose outputs are additionally pushed to the FTP target.
type Profile struct {
	Name   string
	Folder string
	Width  int
	Export bool
}

// DefaultProfiles is the fixed profile set. Only large is exported.
func DefaultProfiles() []Profile {
	return []Profile{
		{Name: "thumbnail", Folder: "thumb", Width: 150},
		{Name: "medium", Folder: "medium", Width: 800},
		{Name: "large", Folder: "large", Width: 1200, Export: true},
	}
}

// Options control the encodings produced per profile.
type Options struct {
	WebPQuality        int
	OriginalQuality    int
	KeepOriginalFormat bool
}

// DecodeError marks a source image that could not be decoded.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode %s: %v", e.Path, e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// Result is the outcome for one profile. A failed profile carries Err
// and no paths; other profiles are unaffected.
type Result struct {
	Profile      Profile
	WebPPath     string
	OriginalPath string
	Width        int
	Height       int
	Err          error
}

// Generator produces derivative files in tempDir. Callers own uploading
// and deleting the produced files.
type Generator struct {
	tempDir string
	opts    Options
}

func NewGenerator(tempDir string, opts Options) *Generator {
	return &Generator{tempDir: tempDir, opts: opts}
}

// Generate decodes srcPath once and renders every profile from the same
// decoded image, profiles running concurrently. The returned slice is
// ordered like profiles. A non-nil error means the source itself was
// unusable; per-profile failures live in each Result.
func (g *Generator) Generate(srcPath string, profiles []Profile) ([]Result, error) {
	src, err := imaging.Open(srcPath, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{Path: srcPath, Err: err}
	}

	ext := strings.ToLower(filepath.Ext(srcPath))
	stem := stemOf(srcPath)

	results := make([]Result, len(profiles))
	var wg sync.WaitGroup
	for i, p := range profiles {
		wg.Add(1)
		go func(i int, p Profile) {
			defer wg.Done()
			results[i] = g.renderProfile(src, p, stem, ext)
		}(i, p)
	}
	wg.Wait()

	return results, nil
}

func (g *Generator) renderProfile(src image.Image, p Profile, stem, ext string) Result {
	res := Result{Profile: p}

	resized := resizeToWidth(src, p.Width)
	bounds := resized.Bounds()
	res.Width = bounds.Dx()
	res.Height = bounds.Dy()

	unique := uuid.NewString()

	webpPath := filepath.Join(g.tempDir, fmt.Sprintf("%s_%s_%s.webp", stem, p.Name, unique))
	if err := g.encodeWebP(resized, webpPath, g.opts.WebPQuality); err != nil {
		res.Err = fmt.Errorf("profile %s webp encode: %w", p.Name, err)
		removeIfExists(webpPath)
		return res
	}
	res.WebPPath = webpPath

	if g.opts.KeepOriginalFormat {
		origPath := filepath.Join(g.tempDir, fmt.Sprintf("%s_%s_%s%s", stem, p.Name, unique, ext))
		if err := g.encodeOriginal(resized, origPath, ext); err != nil {
			res.Err = fmt.Errorf("profile %s original encode: %w", p.Name, err)
			removeIfExists(origPath)
			return res
		}
		res.OriginalPath = origPath
	}

	return res
}

func (g *Generator) encodeWebP(img image.Image, path string, quality int) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	return webp.Encode(out, img, &webp.Options{Quality: float32(quality)})
}

func (g *Generator) encodeOriginal(img image.Image, path, ext string) error {
	switch ext {
	case ".jpg", ".jpeg":
		return imaging.Save(img, path, imaging.JPEGQuality(g.opts.OriginalQuality))
	case ".webp":
		return g.encodeWebP(img, path, g.opts.OriginalQuality)
	default:
		// png, gif, tiff, bmp: format follows the extension
		return imaging.Save(img, path)
	}
}

// resizeToWidth scales preserving aspect ratio and never enlarges: a
// source narrower than the target keeps its size.
func resizeToWidth(src image.Image, width int) image.Image {
	if src.Bounds().Dx() <= width {
		return src
	}
	return imaging.Resize(src, width, 0, imaging.Lanczos)
}

func stemOf(p string) string {
	base := filepath.Base(p)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func removeIfExists(p string) {
	if p == "" {
		return
	}
	if _, err := os.Stat(p); err == nil {
		_ = os.Remove(p)
	}
}
