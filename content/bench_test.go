// =============================================================================
// 🚀 内容包性能基准测试
// =============================================================================
// 覆盖关键路径：
// - 内容包解析与校验
// - 编译为模板节点
// - 演示包完整对话模拟（串行/并行）
//
// 运行方式:
//   go test -bench=. -benchmem ./content/...
// =============================================================================

package content

import (
	"context"
	"testing"

	"github.com/BaSui01/convosim/dialog"
)

// BenchmarkParse_Demo 测试演示包解析与校验性能
func BenchmarkParse_Demo(b *testing.B) {
	data := DemoYAML()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := Parse(data); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkCompile_Demo 测试编译性能
func BenchmarkCompile_Demo(b *testing.B) {
	pack := Demo()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := pack.Compile(); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRun_Demo 测试单段对话模拟性能
func BenchmarkRun_Demo(b *testing.B) {
	compiled, err := Demo().Compile()
	if err != nil {
		b.Fatal(err)
	}
	m := compiled.NewManager()
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		rng := dialog.NewRand(uint64(i) + 1)
		conv, err := m.NewConversation(dialog.Person0, 0.5, RandomPersona(rng), RandomPersona(rng))
		if err != nil {
			b.Fatal(err)
		}
		if _, err := m.Run(ctx, conv, compiled.LullMove, rng, 100); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRun_DemoParallel 测试共享 Manager 的并发模拟性能
func BenchmarkRun_DemoParallel(b *testing.B) {
	compiled, err := Demo().Compile()
	if err != nil {
		b.Fatal(err)
	}
	m := compiled.NewManager()
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		rng := dialog.NewEntropyRand()
		for pb.Next() {
			conv, err := m.NewConversation(dialog.Person1, 0.5, RandomPersona(rng), RandomPersona(rng))
			if err != nil {
				b.Error(err)
				return
			}
			if _, err := m.Run(ctx, conv, compiled.LullMove, rng, 100); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
