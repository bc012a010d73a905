package content

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"

	"github.com/BaSui01/convosim/dialog"
	"go.uber.org/zap"
)

// Compiled 编译后的内容包，可直接用于创建 dialog.Manager
type Compiled struct {
	Name     string
	LullMove dialog.DialogMove
	Nodes    map[dialog.NodeID]*dialog.MoveNode
	Frames   []dialog.Frame
}

// NewManager 用编译结果创建会话管理器
func (c *Compiled) NewManager(opts ...dialog.ManagerOption) *dialog.Manager {
	return dialog.NewManager(c.Nodes, c.Frames, opts...)
}

// Compile 验证内容包并编译为节点和框架
func (p *Pack) Compile() (*Compiled, error) {
	return p.CompileWithLogger(nil)
}

// CompileWithLogger 同 Compile，模板构建过程使用给定日志
func (p *Pack) CompileWithLogger(logger *zap.Logger) (*Compiled, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	b := dialog.NewTemplateBuilder().WithLogger(logger)
	for i := range p.Nodes {
		def := p.Nodes[i]
		nb := b.Node(dialog.NodeID(def.ID)).
			Moves(toMoves(def.Moves)...).
			Topics(toTopics(def.Topics)...).
			When(compileCondition(def.When)).
			Format(compileFormatter(&def)).
			Edit(compileEffects(def.Effects))
		for _, part := range def.Parts {
			nb.Part(toNodeIDs(part)...)
		}
	}
	nodes, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("compile pack %s: %w", p.Name, err)
	}

	frames := make([]dialog.Frame, len(p.Frames))
	for i := range p.Frames {
		frames[i] = compileFrame(p.Frames[i])
	}

	return &Compiled{
		Name:     p.Name,
		LullMove: dialog.DialogMove(p.LullMove),
		Nodes:    nodes,
		Frames:   frames,
	}, nil
}

func compileCondition(c *Condition) dialog.Precondition {
	if c == nil {
		return nil
	}
	cond := *c
	return func(conv *dialog.Conversation) bool {
		return cond.holds(conv)
	}
}

// holds 在当前说话者视角下求值
func (c *Condition) holds(conv *dialog.Conversation) bool {
	for _, t := range c.CanIntroduce {
		if !conv.TopicState.CanBeIntroduced(dialog.Topic(t)) {
			return false
		}
	}
	for _, t := range c.CanAddress {
		if !conv.TopicState.CanBeAddressed(dialog.Topic(t)) {
			return false
		}
	}
	for _, t := range c.NeedsAddressing {
		if !conv.TopicState.NeedsAddressing(dialog.Topic(t)) {
			return false
		}
	}
	for _, m := range c.HasObligation {
		if !conv.MyState().HasObligation(dialog.DialogMove(m)) {
			return false
		}
	}
	for _, m := range c.OtherHasObligation {
		if !conv.OthersState().HasObligation(dialog.DialogMove(m)) {
			return false
		}
	}
	if c.MinTurns != nil && conv.Turns() < *c.MinTurns {
		return false
	}
	if c.MaxTurns != nil && conv.Turns() > *c.MaxTurns {
		return false
	}
	if c.Speaker != "" && resolveRole(conv, c.Speaker) != conv.Speaker {
		return false
	}
	if !hasAttributes(conv.MyState().Character, c.MeHas) {
		return false
	}
	if !hasAttributes(conv.OthersState().Character, c.OtherHas) {
		return false
	}
	if len(c.Any) > 0 && !slices.ContainsFunc(c.Any, func(sub Condition) bool { return sub.holds(conv) }) {
		return false
	}
	if c.Not != nil && c.Not.holds(conv) {
		return false
	}
	return true
}

func hasAttributes(character any, want map[string]string) bool {
	for key, value := range want {
		got, ok := attribute(character, key)
		if !ok || (value != "" && got != value) {
			return false
		}
	}
	return true
}

// resolveRole 将角色名解析为具体参与者；已通过验证，未知值按 person0 处理
func resolveRole(conv *dialog.Conversation, role string) dialog.Speaker {
	switch role {
	case "person1":
		return dialog.Person1
	case "initiator":
		return conv.Initiator
	case "recipient":
		return conv.Initiator.Not()
	default:
		return dialog.Person0
	}
}

// compileFormatter 没有 texts 和 format 时返回 nil，由引擎直接拼接子节点输出
func compileFormatter(def *NodeDef) dialog.Formatter {
	texts := slices.Clone(def.Texts)
	format := def.Format
	if format == "" && len(texts) == 0 {
		return nil
	}
	return func(conv *dialog.Conversation, rng *rand.Rand, parts []string) string {
		var text string
		if len(texts) > 0 {
			text = render(texts[rng.IntN(len(texts))], "", conv, parts)
		}
		if format == "" {
			return text
		}
		return render(format, text, conv, parts)
	}
}

func render(tmpl, text string, conv *dialog.Conversation, parts []string) string {
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		key := match[1 : len(match)-1]
		switch {
		case key == "text":
			return text
		case strings.HasPrefix(key, "me."):
			v, _ := attribute(conv.MyState().Character, strings.TrimPrefix(key, "me."))
			return v
		case strings.HasPrefix(key, "other."):
			v, _ := attribute(conv.OthersState().Character, strings.TrimPrefix(key, "other."))
			return v
		}
		if idx, err := strconv.Atoi(key); err == nil && idx >= 0 && idx < len(parts) {
			return parts[idx]
		}
		return match
	})
}

func compileEffects(e *Effects) dialog.EditHistoricalMove {
	if e == nil || (len(e.Push) == 0 && len(e.Introduce) == 0 && len(e.AddressTopics) == 0 && len(e.AddressMoves) == 0) {
		return nil
	}
	effects := *e
	return func(_ *dialog.Conversation, _ *rand.Rand, h *dialog.HistoricalMove) {
		for _, push := range effects.Push {
			target := h.MyObligations()
			if push.To == "other" {
				target = h.OthersObligations()
			}
			target.Push(dialog.DialogMove(push.Move), push.Urgency, push.TTL)
		}
		for _, t := range effects.Introduce {
			h.TopicState.Introduced.Add(dialog.Topic(t))
		}
		for _, t := range effects.AddressTopics {
			h.TopicState.Addressed.Add(dialog.Topic(t))
		}
		for _, m := range effects.AddressMoves {
			h.MyObligations().Address(dialog.DialogMove(m))
		}
	}
}

// compileFrame 目标在每个会话中重新构建，互不共享状态
func compileFrame(def FrameDef) dialog.Frame {
	return func(conv *dialog.Conversation) {
		for _, push := range def.Push {
			pushed := dialog.NewHistoricalObligations()
			pushed.Push(dialog.DialogMove(push.Move), push.Urgency, push.TTL)
			conv.SpeakerState(resolveRole(conv, push.To)).MergeObligations(&pushed)
		}
		for _, t := range def.Introduce {
			conv.TopicState.Introduced.Add(dialog.Topic(t))
		}
		for i := range def.Goals {
			conv.AddGoal(buildGoal(conv, &def.Goals[i]))
		}
	}
}

func buildGoal(conv *dialog.Conversation, g *GoalDef) dialog.Goal {
	switch {
	case g.Perform != nil:
		return dialog.NewPerformMove(pursuer(conv, g.Perform.By), dialog.DialogMove(g.Perform.Move))
	case g.Repeat != nil:
		return dialog.NewRepeatMove(pursuer(conv, g.Repeat.By), dialog.DialogMove(g.Repeat.Move), g.Repeat.Times)
	case g.Sequence != nil:
		return dialog.NewSequence(goalMoves(conv, g.Sequence)...)
	case g.EagerSequence != nil:
		return dialog.NewEagerSequence(goalMoves(conv, g.EagerSequence)...)
	}

	// all: a, b, c => Concat(a, Concat(b, c))
	goal := buildGoal(conv, &g.All[len(g.All)-1])
	for i := len(g.All) - 2; i >= 0; i-- {
		goal = dialog.NewConcat(buildGoal(conv, &g.All[i]), goal)
	}
	return goal
}

func goalMoves(conv *dialog.Conversation, defs []GoalMoveDef) []dialog.GoalMove {
	out := make([]dialog.GoalMove, len(defs))
	for i, d := range defs {
		out[i] = dialog.GoalMove{Pursuer: pursuer(conv, d.By), Move: dialog.DialogMove(d.Move)}
	}
	return out
}

func pursuer(conv *dialog.Conversation, by string) dialog.GoalPursuer {
	if by == "" || by == "any" {
		return dialog.PursuerAny()
	}
	return dialog.PursuedBy(resolveRole(conv, by))
}

func toMoves(in []string) []dialog.DialogMove {
	out := make([]dialog.DialogMove, len(in))
	for i, s := range in {
		out[i] = dialog.DialogMove(s)
	}
	return out
}

func toTopics(in []string) []dialog.Topic {
	out := make([]dialog.Topic, len(in))
	for i, s := range in {
		out[i] = dialog.Topic(s)
	}
	return out
}

func toNodeIDs(in []string) []dialog.NodeID {
	out := make([]dialog.NodeID, len(in))
	for i, s := range in {
		out[i] = dialog.NodeID(s)
	}
	return out
}
