package content

// Pack 内容包顶层结构
type Pack struct {
	// Version 内容包格式版本
	Version string `yaml:"version,omitempty" json:"version,omitempty"`
	// Name 内容包名称
	Name string `yaml:"name" json:"name"`
	// Description 内容包描述
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	// LullMove 双方都无话可说时尝试的对话动作
	LullMove string `yaml:"lull_move" json:"lull_move"`

	// Nodes 扩展节点定义
	Nodes []NodeDef `yaml:"nodes" json:"nodes"`
	// Frames 新会话的初始化框架，按声明顺序执行
	Frames []FrameDef `yaml:"frames,omitempty" json:"frames,omitempty"`
}

// NodeDef 扩展节点定义
type NodeDef struct {
	ID     string   `yaml:"id" json:"id"`
	Moves  []string `yaml:"moves,omitempty" json:"moves,omitempty"`
	Topics []string `yaml:"topics,omitempty" json:"topics,omitempty"`
	// Parts AND-of-OR：每一段必须由其中一个候选节点实现
	Parts [][]string `yaml:"parts,omitempty" json:"parts,omitempty"`
	When  *Condition `yaml:"when,omitempty" json:"when,omitempty"`
	// Texts 候选文本，随机选取一条
	Texts []string `yaml:"texts,omitempty" json:"texts,omitempty"`
	// Format 输出模板，支持 {0}..{n}、{text}、{me.key}、{other.key}
	Format  string   `yaml:"format,omitempty" json:"format,omitempty"`
	Effects *Effects `yaml:"effects,omitempty" json:"effects,omitempty"`
}

// Condition 节点前置条件，所有字段之间为 AND 关系
type Condition struct {
	CanIntroduce       []string `yaml:"can_introduce,omitempty" json:"can_introduce,omitempty"`
	CanAddress         []string `yaml:"can_address,omitempty" json:"can_address,omitempty"`
	NeedsAddressing    []string `yaml:"needs_addressing,omitempty" json:"needs_addressing,omitempty"`
	HasObligation      []string `yaml:"has_obligation,omitempty" json:"has_obligation,omitempty"`
	OtherHasObligation []string `yaml:"other_has_obligation,omitempty" json:"other_has_obligation,omitempty"`
	MinTurns           *int     `yaml:"min_turns,omitempty" json:"min_turns,omitempty"`
	MaxTurns           *int     `yaml:"max_turns,omitempty" json:"max_turns,omitempty"`
	// Speaker 限定当前说话者：initiator, recipient, person0, person1
	Speaker string `yaml:"speaker,omitempty" json:"speaker,omitempty"`
	// MeHas/OtherHas 角色属性匹配，空值表示只要求属性存在
	MeHas    map[string]string `yaml:"me_has,omitempty" json:"me_has,omitempty"`
	OtherHas map[string]string `yaml:"other_has,omitempty" json:"other_has,omitempty"`
	// Any 任一子条件成立即可
	Any []Condition `yaml:"any,omitempty" json:"any,omitempty"`
	Not *Condition  `yaml:"not,omitempty" json:"not,omitempty"`
}

// Effects 节点实现后对历史记录的修改
type Effects struct {
	Push          []PushDef `yaml:"push,omitempty" json:"push,omitempty"`
	Introduce     []string  `yaml:"introduce,omitempty" json:"introduce,omitempty"`
	AddressTopics []string  `yaml:"address_topics,omitempty" json:"address_topics,omitempty"`
	AddressMoves  []string  `yaml:"address_moves,omitempty" json:"address_moves,omitempty"`
}

// PushDef 推送义务定义
type PushDef struct {
	// To 节点效果中为 me/other，框架中为 person0/person1/initiator/recipient
	To      string `yaml:"to" json:"to"`
	Move    string `yaml:"move" json:"move"`
	Urgency int32  `yaml:"urgency,omitempty" json:"urgency,omitempty"`
	TTL     uint32 `yaml:"ttl,omitempty" json:"ttl,omitempty"`
}

// FrameDef 会话初始化框架定义
type FrameDef struct {
	Name      string    `yaml:"name" json:"name"`
	Push      []PushDef `yaml:"push,omitempty" json:"push,omitempty"`
	Introduce []string  `yaml:"introduce,omitempty" json:"introduce,omitempty"`
	Goals     []GoalDef `yaml:"goals,omitempty" json:"goals,omitempty"`
}

// GoalDef 目标定义，只能设置其中一种
type GoalDef struct {
	Perform       *GoalMoveDef  `yaml:"perform,omitempty" json:"perform,omitempty"`
	Repeat        *RepeatDef    `yaml:"repeat,omitempty" json:"repeat,omitempty"`
	Sequence      []GoalMoveDef `yaml:"sequence,omitempty" json:"sequence,omitempty"`
	EagerSequence []GoalMoveDef `yaml:"eager_sequence,omitempty" json:"eager_sequence,omitempty"`
	// All 依次完成的子目标，折叠为嵌套的 Concat
	All []GoalDef `yaml:"all,omitempty" json:"all,omitempty"`
}

// GoalMoveDef 目标动作
type GoalMoveDef struct {
	Move string `yaml:"move" json:"move"`
	// By any（默认）、person0、person1、initiator、recipient
	By string `yaml:"by,omitempty" json:"by,omitempty"`
}

// RepeatDef 重复目标
type RepeatDef struct {
	Move  string `yaml:"move" json:"move"`
	By    string `yaml:"by,omitempty" json:"by,omitempty"`
	Times int    `yaml:"times" json:"times"`
}
