package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"lectern/internal/fileutil"
	"lectern/internal/services"
	"lectern/internal/textutil"
)

// Config holds downloader settings.
type Config struct {
	// Binary is the yt-dlp executable name or path.
	Binary string
}

// Media describes one downloaded item.
type Media struct {
	ID              string
	Title           string
	Channel         string
	Path            string
	DurationSeconds float64
}

// Downloader fetches audio from streaming URLs with yt-dlp and lands the
// result in the extracted audio directory, named after the sanitized title so
// it enters the pipeline at the transcription stage.
type Downloader struct {
	cfg    Config
	runner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// New creates a Downloader.
func New(cfg Config) *Downloader {
	if cfg.Binary == "" {
		cfg.Binary = "yt-dlp"
	}
	return &Downloader{cfg: cfg}
}

// WithRunner sets a custom command runner (for testing). The runner returns
// the command's stdout.
func (d *Downloader) WithRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	d.runner = runner
}

// Probe checks that the yt-dlp binary is available.
func (d *Downloader) Probe() error {
	if _, err := exec.LookPath(d.cfg.Binary); err != nil {
		return services.Wrap(services.ErrConfiguration, "download", "probe", fmt.Sprintf("%s not found in PATH", d.cfg.Binary), nil)
	}
	return nil
}

// infoPayload is the subset of yt-dlp's info JSON the downloader uses.
type infoPayload struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Channel  string  `json:"channel"`
	Uploader string  `json:"uploader"`
	Duration float64 `json:"duration"`
}

// Download fetches the audio track of url into destDir as a wav file named
// after the sanitized title.
func (d *Downloader) Download(ctx context.Context, url, destDir string) (Media, error) {
	var media Media
	if strings.TrimSpace(url) == "" {
		return media, services.Wrap(services.ErrValidation, "download", "download", "url required", nil)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return media, services.Wrap(services.ErrTransient, "download", "download", "ensure destination directory", err)
	}

	outputTemplate := filepath.Join(destDir, "%(id)s.%(ext)s")
	args := []string{
		"--no-playlist",
		"--extract-audio",
		"--audio-format", "wav",
		"--print-json",
		"--no-progress",
		"-o", outputTemplate,
		url,
	}

	stdout, err := d.run(ctx, d.cfg.Binary, args...)
	if err != nil {
		return media, services.Wrap(services.ErrExternalTool, "download", "yt-dlp", url, err)
	}

	var info infoPayload
	if err := json.Unmarshal(firstJSONLine(stdout), &info); err != nil {
		return media, services.Wrap(services.ErrExternalTool, "download", "yt-dlp", "parse info json", err)
	}
	if info.ID == "" {
		return media, services.Wrap(services.ErrExternalTool, "download", "yt-dlp", "info json missing id", nil)
	}

	media.ID = info.ID
	media.Title = info.Title
	media.Channel = info.Channel
	if media.Channel == "" {
		media.Channel = info.Uploader
	}
	media.DurationSeconds = info.Duration

	downloaded := filepath.Join(destDir, info.ID+".wav")
	if _, err := os.Stat(downloaded); err != nil {
		return media, services.Wrap(services.ErrExternalTool, "download", "yt-dlp", "downloaded file missing", err)
	}

	media.Path, err = d.renameToTitle(downloaded, destDir, info)
	if err != nil {
		return media, err
	}
	return media, nil
}

// renameToTitle moves the id-named download to a sanitized-title filename.
// On collision the video id is appended to keep the result unique.
func (d *Downloader) renameToTitle(downloaded, destDir string, info infoPayload) (string, error) {
	stem := textutil.SanitizeStem(info.Title)
	target := filepath.Join(destDir, stem+".wav")
	if _, err := os.Stat(target); err == nil {
		target = filepath.Join(destDir, stem+"_"+info.ID+".wav")
	}
	if err := fileutil.MoveFile(downloaded, target); err != nil {
		return "", services.Wrap(services.ErrTransient, "download", "rename", filepath.Base(target), err)
	}
	return target, nil
}

func (d *Downloader) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if d.runner != nil {
		return d.runner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	stdout, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout, nil
}

// firstJSONLine isolates the first JSON object line from stdout; yt-dlp can
// emit extra lines around the info JSON.
func firstJSONLine(output []byte) []byte {
	for _, line := range strings.Split(string(output), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "{") {
			return []byte(trimmed)
		}
	}
	return output
}
