// Package deliver 负责把导出的 PDF 交给用户：优先调用系统分享，失败时退回到下载（写文件）。
package deliver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrShareCanceled 表示用户主动取消了分享，视为成功结束，不再回退到下载。
var ErrShareCanceled = errors.New("使用者取消分享")

// ErrShareUnavailable 表示当前环境没有可用的分享方式。
var ErrShareUnavailable = errors.New("分享功能不可用")

// File 是待交付的文件。
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// ShareTarget 是系统分享的抽象。
type ShareTarget interface {
	Share(ctx context.Context, f File) error
}

// Downloader 将文件保存到用户可以取得的位置，返回最终位置。
type Downloader interface {
	Download(ctx context.Context, f File) (string, error)
}

// Method 表示最终的交付方式。
type Method string

const (
	MethodShared     Method = "shared"
	MethodCanceled   Method = "canceled"
	MethodDownloaded Method = "downloaded"
)

// Result 是一次交付的结果。
type Result struct {
	Method   Method
	Location string
}

// Dispatcher 先尝试分享，分享不可用或出错时退回到下载。
type Dispatcher struct {
	Share    ShareTarget
	Download Downloader
	Logger   *slog.Logger
}

func (d *Dispatcher) Deliver(ctx context.Context, f File) (Result, error) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if f.ContentType == "" {
		f.ContentType = "application/pdf"
	}
	if d.Share != nil {
		err := d.Share.Share(ctx, f)
		switch {
		case err == nil:
			return Result{Method: MethodShared}, nil
		case errors.Is(err, ErrShareCanceled):
			logger.Info("使用者取消分享", "file", f.Name)
			return Result{Method: MethodCanceled}, nil
		case errors.Is(err, ErrShareUnavailable):
			logger.Debug("分享不可用，改为下载", "file", f.Name)
		default:
			logger.Warn("分享失败，改为下载", "file", f.Name, "err", err)
		}
	}
	if d.Download == nil {
		return Result{}, fmt.Errorf("没有可用的交付方式")
	}
	loc, err := d.Download.Download(ctx, f)
	if err != nil {
		return Result{}, fmt.Errorf("保存 %s 失败: %w", f.Name, err)
	}
	return Result{Method: MethodDownloaded, Location: loc}, nil
}

// FileDownloader 将文件写入目录。
type FileDownloader struct {
	Dir string
}

func (fd FileDownloader) Download(_ context.Context, f File) (string, error) {
	dir := fd.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, filepath.Base(f.Name))
	if err := os.WriteFile(path, f.Data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// ResponseDownloader 以附件形式写入 HTTP 响应，供服务端导出使用。
type ResponseDownloader struct {
	W http.ResponseWriter
}

func (rd ResponseDownloader) Download(_ context.Context, f File) (string, error) {
	h := rd.W.Header()
	h.Set("Content-Type", f.ContentType)
	h.Set("Content-Length", strconv.Itoa(len(f.Data)))
	h.Set("Content-Disposition", contentDisposition(f.Name))
	rd.W.WriteHeader(http.StatusOK)
	if _, err := rd.W.Write(f.Data); err != nil {
		return "", err
	}
	return f.Name, nil
}

// contentDisposition 同时给出 ASCII 回退名与 RFC 5987 编码的 UTF-8 文件名。
func contentDisposition(name string) string {
	fallback := strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, name)
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, fallback, pathEscape(name))
}

func pathEscape(s string) string {
	var b strings.Builder
	for _, c := range []byte(s) {
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || strings.IndexByte("-._~", c) >= 0 {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

// ExecShare 通过外部命令分享文件，文件先写到临时目录，路径作为最后一个参数。
// 命令以 130 退出（常见的 Ctrl-C/取消约定）或标准输出只有 canceled 时视为使用者取消。
type ExecShare struct {
	Command []string
}

func (s ExecShare) Share(ctx context.Context, f File) error {
	if len(s.Command) == 0 {
		return ErrShareUnavailable
	}
	bin, err := exec.LookPath(s.Command[0])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrShareUnavailable, err)
	}
	dir, err := os.MkdirTemp("", "examsheet-share-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, filepath.Base(f.Name))
	if err := os.WriteFile(path, f.Data, 0o644); err != nil {
		return err
	}
	args := append(append([]string{}, s.Command[1:]...), path)
	out, err := exec.CommandContext(ctx, bin, args...).Output()
	if canceledOutput(out) {
		return ErrShareCanceled
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 130 {
			return ErrShareCanceled
		}
		return fmt.Errorf("分享命令执行失败: %w", err)
	}
	return nil
}

func canceledOutput(out []byte) bool {
	switch strings.ToLower(strings.TrimSpace(string(out))) {
	case "canceled", "cancelled":
		return true
	}
	return false
}
