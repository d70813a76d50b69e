package resource

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MaxResourceBytes 限制单个资源的大小。
const MaxResourceBytes = 32 << 20

// ErrNotFound 表示资源不存在（HTTP 404 或文件缺失）。
var ErrNotFound = errors.New("资源不存在")

// ErrFontEmbed 表示字体无法嵌入，导出随之中止。
var ErrFontEmbed = errors.New("字体嵌入失败")

// Fetcher 按 URI 取得原始字节。支持 http(s)、data:、file:// 与相对路径（相对 BaseDir）。
type Fetcher struct {
	Client  *http.Client
	BaseDir string
}

// NewFetcher 创建带超时的 Fetcher。
func NewFetcher(baseDir string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{Client: &http.Client{Timeout: timeout}, BaseDir: baseDir}
}

func (f *Fetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	uri = strings.TrimSpace(uri)
	switch {
	case uri == "":
		return nil, fmt.Errorf("资源地址为空")
	case strings.HasPrefix(uri, "data:"):
		return decodeDataURI(uri)
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return f.fetchHTTP(ctx, uri)
	case strings.HasPrefix(uri, "file://"):
		u, err := url.Parse(uri)
		if err != nil {
			return nil, fmt.Errorf("无法解析地址 %s: %w", uri, err)
		}
		return readFile(u.Path)
	default:
		path := filepath.FromSlash(uri)
		if !filepath.IsAbs(path) {
			if f.BaseDir == "" {
				return nil, fmt.Errorf("未指定资源目录时不允许使用相对路径：%s", uri)
			}
			path = filepath.Join(f.BaseDir, path)
		}
		return readFile(path)
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, uri string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求 %s 失败: %w", uri, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", uri, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("请求 %s 返回 %s", uri, resp.Status)
	}
	return readLimited(resp.Body)
}

func readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, err
	}
	defer file.Close()
	return readLimited(file)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxResourceBytes+1))
	if err != nil {
		return nil, fmt.Errorf("读取资源失败: %w", err)
	}
	if len(data) > MaxResourceBytes {
		return nil, fmt.Errorf("资源超过 %d 字节上限", MaxResourceBytes)
	}
	return data, nil
}

// decodeDataURI 解析 data:[<mediatype>][;base64],<data>。
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("data URI 缺少逗号")
	}
	if strings.HasSuffix(header, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return nil, fmt.Errorf("data URI base64 解码失败: %w", err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("data URI 解码失败: %w", err)
	}
	return []byte(s), nil
}
