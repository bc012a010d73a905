package content

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{([^{}]*)\}`)

var (
	nodePushTargets  = map[string]bool{"me": true, "other": true}
	framePushTargets = map[string]bool{"person0": true, "person1": true, "initiator": true, "recipient": true}
	speakerRoles     = map[string]bool{"person0": true, "person1": true, "initiator": true, "recipient": true}
	pursuers         = map[string]bool{"": true, "any": true, "person0": true, "person1": true, "initiator": true, "recipient": true}
)

// Validator 内容包验证器
type Validator struct{}

// NewValidator 创建验证器
func NewValidator() *Validator {
	return &Validator{}
}

// Validate 验证内容包定义
func (v *Validator) Validate(p *Pack) []error {
	var errs []error

	if p.Name == "" {
		errs = append(errs, fmt.Errorf("name is required"))
	}
	if p.LullMove == "" {
		errs = append(errs, fmt.Errorf("lull_move is required"))
	}
	if len(p.Nodes) == 0 {
		errs = append(errs, fmt.Errorf("nodes must have at least one node"))
	}

	// 收集节点 ID、可实现的动作和可回应的话题
	nodeIDs := make(map[string]bool)
	moves := make(map[string]bool)
	topics := make(map[string]bool)
	for _, node := range p.Nodes {
		if node.ID == "" {
			errs = append(errs, fmt.Errorf("node ID is required"))
			continue
		}
		if nodeIDs[node.ID] {
			errs = append(errs, fmt.Errorf("duplicate node ID: %s", node.ID))
		}
		nodeIDs[node.ID] = true
		for _, m := range node.Moves {
			moves[m] = true
		}
		for _, t := range node.Topics {
			topics[t] = true
		}
	}

	if p.LullMove != "" && !moves[p.LullMove] {
		errs = append(errs, fmt.Errorf("lull_move %q is not realized by any node", p.LullMove))
	}

	refs := &references{moves: moves, topics: topics}
	for i := range p.Nodes {
		errs = append(errs, v.validateNode(&p.Nodes[i], nodeIDs, refs)...)
	}
	for i := range p.Frames {
		errs = append(errs, v.validateFrame(i, &p.Frames[i], refs)...)
	}
	return errs
}

// references 引用完整性检查：被推送或作为目标的动作必须有节点实现，
// 被引入的话题必须有节点回应，否则运行时会出现致命错误。
type references struct {
	moves  map[string]bool
	topics map[string]bool
}

func (r *references) move(where, move string) error {
	if move == "" {
		return fmt.Errorf("%s: move is required", where)
	}
	if !r.moves[move] {
		return fmt.Errorf("%s: move %q is not realized by any node", where, move)
	}
	return nil
}

func (r *references) topic(where, topic string) error {
	if !r.topics[topic] {
		return fmt.Errorf("%s: topic %q is not addressed by any node", where, topic)
	}
	return nil
}

// validateNode 验证单个节点
func (v *Validator) validateNode(node *NodeDef, nodeIDs map[string]bool, refs *references) []error {
	var errs []error
	where := "node " + node.ID

	for i, part := range node.Parts {
		if len(part) == 0 {
			errs = append(errs, fmt.Errorf("%s: part %d has no alternatives", where, i))
		}
		for _, ref := range part {
			if !nodeIDs[ref] {
				errs = append(errs, fmt.Errorf("%s: references non-existent node %q", where, ref))
			}
		}
	}

	errs = append(errs, validateTemplate(where, "format", node.Format, len(node.Parts), len(node.Texts) > 0)...)
	for i, text := range node.Texts {
		errs = append(errs, validateTemplate(where, fmt.Sprintf("text %d", i), text, len(node.Parts), false)...)
	}

	if node.When != nil {
		errs = append(errs, validateCondition(where, node.When)...)
	}

	if node.Effects != nil {
		for _, push := range node.Effects.Push {
			if !nodePushTargets[push.To] {
				errs = append(errs, fmt.Errorf("%s: invalid push target %q (want me or other)", where, push.To))
			}
			if err := refs.move(where, push.Move); err != nil {
				errs = append(errs, err)
			}
		}
		for _, topic := range node.Effects.Introduce {
			if err := refs.topic(where, topic); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errs
}

// validateTemplate 验证模板中的占位符，texts 中不允许出现 {text}
func validateTemplate(where, field, tmpl string, parts int, allowText bool) []error {
	var errs []error
	for _, match := range placeholderPattern.FindAllStringSubmatch(tmpl, -1) {
		key := match[1]
		switch {
		case key == "text":
			if !allowText {
				errs = append(errs, fmt.Errorf("%s: %s uses {text} but no texts are available", where, field))
			}
		case strings.HasPrefix(key, "me.") || strings.HasPrefix(key, "other."):
			if _, attr, _ := strings.Cut(key, "."); attr == "" {
				errs = append(errs, fmt.Errorf("%s: %s has empty attribute in placeholder {%s}", where, field, key))
			}
		default:
			idx, err := strconv.Atoi(key)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %s has unknown placeholder {%s}", where, field, key))
			} else if idx < 0 || idx >= parts {
				errs = append(errs, fmt.Errorf("%s: %s placeholder {%d} out of range (%d parts)", where, field, idx, parts))
			}
		}
	}
	return errs
}

// validateCondition 递归验证前置条件
func validateCondition(where string, c *Condition) []error {
	var errs []error
	if c.Speaker != "" && !speakerRoles[c.Speaker] {
		errs = append(errs, fmt.Errorf("%s: invalid speaker %q", where, c.Speaker))
	}
	if c.MinTurns != nil && *c.MinTurns < 0 {
		errs = append(errs, fmt.Errorf("%s: min_turns must be >= 0", where))
	}
	if c.MinTurns != nil && c.MaxTurns != nil && *c.MinTurns > *c.MaxTurns {
		errs = append(errs, fmt.Errorf("%s: min_turns %d exceeds max_turns %d", where, *c.MinTurns, *c.MaxTurns))
	}
	for i := range c.Any {
		errs = append(errs, validateCondition(where, &c.Any[i])...)
	}
	if c.Not != nil {
		errs = append(errs, validateCondition(where, c.Not)...)
	}
	return errs
}

// validateFrame 验证框架
func (v *Validator) validateFrame(idx int, frame *FrameDef, refs *references) []error {
	var errs []error
	where := fmt.Sprintf("frame %d", idx)
	if frame.Name != "" {
		where = "frame " + frame.Name
	}

	for _, push := range frame.Push {
		if !framePushTargets[push.To] {
			errs = append(errs, fmt.Errorf("%s: invalid push target %q", where, push.To))
		}
		if err := refs.move(where, push.Move); err != nil {
			errs = append(errs, err)
		}
	}
	for _, topic := range frame.Introduce {
		if err := refs.topic(where, topic); err != nil {
			errs = append(errs, err)
		}
	}
	for i := range frame.Goals {
		errs = append(errs, validateGoal(fmt.Sprintf("%s goal %d", where, i), &frame.Goals[i], refs)...)
	}
	return errs
}

// validateGoal 递归验证目标定义
func validateGoal(where string, g *GoalDef, refs *references) []error {
	var errs []error

	set := 0
	if g.Perform != nil {
		set++
		errs = append(errs, validateGoalMove(where, g.Perform.Move, g.Perform.By, refs)...)
	}
	if g.Repeat != nil {
		set++
		errs = append(errs, validateGoalMove(where, g.Repeat.Move, g.Repeat.By, refs)...)
		if g.Repeat.Times <= 0 {
			errs = append(errs, fmt.Errorf("%s: repeat times must be > 0", where))
		}
	}
	if g.Sequence != nil {
		set++
		errs = append(errs, validateGoalMoves(where, g.Sequence, refs)...)
	}
	if g.EagerSequence != nil {
		set++
		errs = append(errs, validateGoalMoves(where, g.EagerSequence, refs)...)
	}
	if g.All != nil {
		set++
		if len(g.All) == 0 {
			errs = append(errs, fmt.Errorf("%s: all must have at least one goal", where))
		}
		for i := range g.All {
			errs = append(errs, validateGoal(fmt.Sprintf("%s.%d", where, i), &g.All[i], refs)...)
		}
	}

	if set != 1 {
		errs = append(errs, fmt.Errorf("%s: exactly one of perform, repeat, sequence, eager_sequence, all is required", where))
	}
	return errs
}

func validateGoalMoves(where string, moves []GoalMoveDef, refs *references) []error {
	if len(moves) == 0 {
		return []error{fmt.Errorf("%s: sequence must have at least one move", where)}
	}
	var errs []error
	for _, m := range moves {
		errs = append(errs, validateGoalMove(where, m.Move, m.By, refs)...)
	}
	return errs
}

func validateGoalMove(where, move, by string, refs *references) []error {
	var errs []error
	if err := refs.move(where, move); err != nil {
		errs = append(errs, err)
	}
	if !pursuers[by] {
		errs = append(errs, fmt.Errorf("%s: invalid pursuer %q", where, by))
	}
	return errs
}
