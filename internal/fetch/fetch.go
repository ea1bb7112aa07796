// Package fetch turns input references into local files.
// Plain paths are used as they are. s3:// and http(s):// references are downloaded into a
// temporary directory, keeping their base names so that outputs are named like the source.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

type Fetcher struct {
	HTTP *http.Client
	Log  zerolog.Logger

	dir string
	n   int

	s3Once sync.Once
	s3     *s3.Client
	s3Err  error
}

// New creates a fetcher that downloads into a fresh temporary directory
func New(log zerolog.Logger) (*Fetcher, error) {
	dir, err := os.MkdirTemp("", "deskew-fetch-*")
	if err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}
	return &Fetcher{HTTP: http.DefaultClient, Log: log, dir: dir}, nil
}

// Close removes everything that was downloaded
func (f *Fetcher) Close() error {
	return os.RemoveAll(f.dir)
}

func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "s3://") || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Local returns a local path holding the content of ref
func (f *Fetcher) Local(ctx context.Context, ref string) (string, error) {
	if !IsRemote(ref) {
		return ref, nil
	}
	f.n++
	target := filepath.Join(f.dir, strconv.Itoa(f.n), baseName(ref))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", err
	}
	var err error
	if strings.HasPrefix(ref, "s3://") {
		err = f.downloadS3(ctx, ref, target)
	} else {
		err = f.downloadHTTP(ctx, ref, target)
	}
	if err != nil {
		os.Remove(target)
		return "", fmt.Errorf("fetch %v: %w", ref, err)
	}
	f.Log.Info().Str("ref", ref).Str("file", target).Msg("downloaded")
	return target, nil
}

func baseName(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 && !strings.HasPrefix(ref, "s3://") {
		ref = ref[:i]
	}
	base := path.Base(ref)
	if base == "" || base == "." || base == "/" || strings.HasSuffix(ref, "/") {
		return "download"
	}
	return base
}

func (f *Fetcher) downloadHTTP(ctx context.Context, url, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := f.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, resp.Body)
	return err
}

func splitS3(ref string) (bucket, key string, err error) {
	p := strings.TrimPrefix(ref, "s3://")
	slash := strings.Index(p, "/")
	if slash <= 0 || slash == len(p)-1 {
		return "", "", fmt.Errorf("invalid s3 url: %s", ref)
	}
	return p[:slash], p[slash+1:], nil
}

func (f *Fetcher) client(ctx context.Context) (*s3.Client, error) {
	f.s3Once.Do(func() {
		// Region and credentials come from the default chain
		cfg, err := awscfg.LoadDefaultConfig(ctx)
		if err != nil {
			f.s3Err = fmt.Errorf("failed to load AWS config: %w", err)
			return
		}
		f.s3 = s3.NewFromConfig(cfg)
	})
	return f.s3, f.s3Err
}

func (f *Fetcher) downloadS3(ctx context.Context, ref, target string) error {
	bucket, key, err := splitS3(ref)
	if err != nil {
		return err
	}
	cli, err := f.client(ctx)
	if err != nil {
		return err
	}
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()
	downloader := manager.NewDownloader(cli)
	_, err = downloader.Download(ctx, out, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return err
}
