package evidence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore 把打卡照片写到本地目录，内容寻址，返回的引用即文件名。
// 生产环境的对象存储是外部协作方，这个实现用于开发与测试。
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建证据目录失败: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) Store(ctx context.Context, data []byte, hint string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	sum := sha256.Sum256(data)
	name := hex.EncodeToString(sum[:16])
	if ext := sanitizeExt(hint); ext != "" {
		name += ext
	}

	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err == nil {
		// 内容相同的照片已经存在，复用引用
		return name, nil
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}

	return name, nil
}

func sanitizeExt(hint string) string {
	ext := strings.ToLower(filepath.Ext(hint))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
		return ext
	default:
		return ""
	}
}
