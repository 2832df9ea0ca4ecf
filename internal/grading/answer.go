package grading

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// 题型标识，与 model 中的 QuestionType 一致
const (
	KindMCQ = "mcq"
	KindMSQ = "msq"
	KindNAT = "nat"
)

var ErrInvalidPayload = errors.New("invalid answer payload")

// Payload 是作答与标准答案共用的类型标记载荷：
// {kind:"mcq", optionId} / {kind:"msq", optionIds} / {kind:"nat", value, tolerance?}
type Payload struct {
	Kind      string   `json:"kind"`
	OptionID  string   `json:"optionId,omitempty"`
	OptionIDs []string `json:"optionIds,omitempty"`
	Value     *float64 `json:"value,omitempty"`
	Tolerance *float64 `json:"tolerance,omitempty"`
}

func ParsePayload(raw []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	p.Kind = strings.ToLower(strings.TrimSpace(p.Kind))
	return p, nil
}

// Validate 在进入判分引擎之前于系统边界完成校验，
// 引擎内部不再做运行时类型检查。
func (p Payload) Validate(questionType string) error {
	if p.Kind != strings.ToLower(questionType) {
		return fmt.Errorf("%w: kind %q does not match question type %q", ErrInvalidPayload, p.Kind, questionType)
	}
	switch p.Kind {
	case KindMCQ:
		if strings.TrimSpace(p.OptionID) == "" {
			return fmt.Errorf("%w: mcq requires optionId", ErrInvalidPayload)
		}
	case KindMSQ:
		if len(p.OptionIDs) == 0 {
			return fmt.Errorf("%w: msq requires optionIds", ErrInvalidPayload)
		}
		for _, id := range p.OptionIDs {
			if strings.TrimSpace(id) == "" {
				return fmt.Errorf("%w: msq optionIds must be non-empty", ErrInvalidPayload)
			}
		}
	case KindNAT:
		if p.Value == nil {
			return fmt.Errorf("%w: nat requires value", ErrInvalidPayload)
		}
		if p.Tolerance != nil && *p.Tolerance < 0 {
			return fmt.Errorf("%w: nat tolerance must be >= 0", ErrInvalidPayload)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPayload, p.Kind)
	}
	return nil
}

// tolerance 未给定时默认 0
func (p Payload) tolerance() float64 {
	if p.Tolerance == nil {
		return 0
	}
	return *p.Tolerance
}

func (p Payload) matches(submitted Payload) bool {
	switch p.Kind {
	case KindMCQ:
		return submitted.OptionID == p.OptionID
	case KindMSQ:
		return equalOptionSet(p.OptionIDs, submitted.OptionIDs)
	case KindNAT:
		if p.Value == nil || submitted.Value == nil {
			return false
		}
		return math.Abs(*p.Value-*submitted.Value) <= p.tolerance()
	default:
		// 未知题型一律判错
		return false
	}
}

// 集合全等：元素相同、数量相同，与顺序无关；子集/超集不得分
func equalOptionSet(a, b []string) bool {
	sa := toSet(a)
	sb := toSet(b)
	if len(sa) != len(sb) {
		return false
	}
	for id := range sb {
		if _, ok := sa[id]; !ok {
			return false
		}
	}
	return true
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
