package content

import (
	_ "embed"
	"fmt"
)

//go:embed packs/demo.yaml
var demoPack []byte

// DemoYAML 返回内置演示内容包的原始 YAML
func DemoYAML() []byte {
	return demoPack
}

// Demo 解析内置演示内容包：问候、闲聊与最喜欢的音乐流派
func Demo() *Pack {
	pack, err := Parse(demoPack)
	if err != nil {
		panic(fmt.Sprintf("content: built-in demo pack is invalid: %v", err))
	}
	return pack
}
