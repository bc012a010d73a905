package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BaSui01/convosim/types"
	"gopkg.in/yaml.v3"
)

// LoadFile 从文件加载内容包，按扩展名选择 JSON 或 YAML
func LoadFile(filename string) (*Pack, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read content pack: %w", err)
	}
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		return ParseJSON(data)
	}
	return Parse(data)
}

// Parse 从 YAML 字节解析并验证内容包
func Parse(data []byte) (*Pack, error) {
	var pack Pack
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&pack); err != nil {
		return nil, types.NewError(types.ErrInvalidContent, "parse YAML").WithCause(err)
	}
	if err := pack.Validate(); err != nil {
		return nil, err
	}
	return &pack, nil
}

// ParseJSON 从 JSON 字节解析并验证内容包
func ParseJSON(data []byte) (*Pack, error) {
	var pack Pack
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&pack); err != nil {
		return nil, types.NewError(types.ErrInvalidContent, "parse JSON").WithCause(err)
	}
	if err := pack.Validate(); err != nil {
		return nil, err
	}
	return &pack, nil
}

// Validate 验证内容包，所有问题合并为一个错误返回
func (p *Pack) Validate() error {
	errs := NewValidator().Validate(p)
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return types.Errorf(types.ErrInvalidContent, "validation errors: %s", strings.Join(msgs, "; "))
}
