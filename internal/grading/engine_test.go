package grading

import (
	"math"
	"testing"
)

func f64(v float64) *float64 { return &v }

func mcqKey(optionID string) Payload {
	return Payload{Kind: KindMCQ, OptionID: optionID}
}

func msqKey(ids ...string) Payload {
	return Payload{Kind: KindMSQ, OptionIDs: ids}
}

func natKey(value, tolerance float64) Payload {
	return Payload{Kind: KindNAT, Value: f64(value), Tolerance: f64(tolerance)}
}

func TestGradeMCQ(t *testing.T) {
	questions := []Question{{ID: 1, Type: KindMCQ, Marks: 2, CorrectAnswer: mcqKey("A")}}

	tests := []struct {
		name      string
		submitted Payload
		correct   bool
	}{
		{name: "exact option id", submitted: mcqKey("A"), correct: true},
		{name: "different option id", submitted: mcqKey("B"), correct: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := Grade(questions, map[uint]Payload{1: tc.submitted}, 0)
			if res.Outcomes[0].IsCorrect != tc.correct {
				t.Fatalf("expected correct=%v, got=%v", tc.correct, res.Outcomes[0].IsCorrect)
			}
		})
	}
}

func TestGradeMSQExactSetEquality(t *testing.T) {
	questions := []Question{{ID: 1, Type: KindMSQ, Marks: 4, CorrectAnswer: msqKey("A", "B")}}

	tests := []struct {
		name      string
		submitted Payload
		correct   bool
	}{
		{name: "same set different order", submitted: msqKey("B", "A"), correct: true},
		{name: "subset not accepted", submitted: msqKey("A"), correct: false},
		{name: "superset not accepted", submitted: msqKey("A", "B", "C"), correct: false},
		{name: "duplicates collapse to set", submitted: msqKey("A", "A"), correct: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := Grade(questions, map[uint]Payload{1: tc.submitted}, 0)
			if res.Outcomes[0].IsCorrect != tc.correct {
				t.Fatalf("expected correct=%v, got=%v", tc.correct, res.Outcomes[0].IsCorrect)
			}
		})
	}
}

func TestGradeNATTolerance(t *testing.T) {
	questions := []Question{{ID: 1, Type: KindNAT, Marks: 3, CorrectAnswer: natKey(10, 0.5)}}

	tests := []struct {
		name      string
		value     float64
		correct   bool
	}{
		{name: "inside tolerance", value: 10.4, correct: true},
		{name: "boundary inclusive", value: 10.5, correct: true},
		{name: "outside tolerance", value: 10.6, correct: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := Grade(questions, map[uint]Payload{1: {Kind: KindNAT, Value: f64(tc.value)}}, 0)
			if res.Outcomes[0].IsCorrect != tc.correct {
				t.Fatalf("expected correct=%v, got=%v", tc.correct, res.Outcomes[0].IsCorrect)
			}
		})
	}
}

func TestGradeNATDefaultToleranceZero(t *testing.T) {
	questions := []Question{{ID: 1, Type: KindNAT, Marks: 1, CorrectAnswer: Payload{Kind: KindNAT, Value: f64(5)}}}

	res := Grade(questions, map[uint]Payload{1: {Kind: KindNAT, Value: f64(5)}}, 0)
	if !res.Outcomes[0].IsCorrect {
		t.Fatal("exact value must be correct when tolerance is unset")
	}
	res = Grade(questions, map[uint]Payload{1: {Kind: KindNAT, Value: f64(5.0001)}}, 0)
	if res.Outcomes[0].IsCorrect {
		t.Fatal("any deviation must be wrong when tolerance is unset")
	}
}

func TestGradeUnknownTypeIsWrong(t *testing.T) {
	questions := []Question{{ID: 1, Type: "essay", Marks: 5, CorrectAnswer: Payload{Kind: "essay"}}}

	res := Grade(questions, map[uint]Payload{1: {Kind: "essay"}}, 0.5)
	if res.Outcomes[0].IsCorrect {
		t.Fatal("unknown question type must never be marked correct")
	}
	if res.WrongCount != 1 {
		t.Fatalf("expected wrongCount=1, got=%d", res.WrongCount)
	}
	if res.Outcomes[0].MarksAwarded != -2.5 {
		t.Fatalf("expected penalty -2.5, got=%v", res.Outcomes[0].MarksAwarded)
	}
}

// 场景 A：Q1 单选答错、Q2 数值题未答，倒扣后原始分 -0.5 封底为 0。
func TestGradeScenarioWrongAndSkipped(t *testing.T) {
	questions := []Question{
		{ID: 1, Type: KindMCQ, Marks: 2, CorrectAnswer: mcqKey("A")},
		{ID: 2, Type: KindNAT, Marks: 3, CorrectAnswer: natKey(5, 1)},
	}
	answers := map[uint]Payload{1: mcqKey("B")}

	res := Grade(questions, answers, 0.25)

	if res.CorrectCount != 0 || res.WrongCount != 1 || res.SkippedCount != 1 {
		t.Fatalf("unexpected counts: correct=%d wrong=%d skipped=%d",
			res.CorrectCount, res.WrongCount, res.SkippedCount)
	}
	if res.TotalScore != 0 {
		t.Fatalf("expected floored total 0, got=%v", res.TotalScore)
	}
	if res.MaxScore != 5 {
		t.Fatalf("expected maxScore 5, got=%v", res.MaxScore)
	}
	if res.Percentage != 0 {
		t.Fatalf("expected percentage 0, got=%v", res.Percentage)
	}
	if res.Outcomes[0].MarksAwarded != -0.5 {
		t.Fatalf("expected Q1 penalty -0.5, got=%v", res.Outcomes[0].MarksAwarded)
	}
	if res.Outcomes[1].Answered {
		t.Fatal("skipped question must not be marked answered")
	}
}

// 场景 B：同一测评全部答对，满分 5 分，百分比 100。
func TestGradeScenarioAllCorrect(t *testing.T) {
	questions := []Question{
		{ID: 1, Type: KindMCQ, Marks: 2, CorrectAnswer: mcqKey("A")},
		{ID: 2, Type: KindNAT, Marks: 3, CorrectAnswer: natKey(5, 1)},
	}
	answers := map[uint]Payload{
		1: mcqKey("A"),
		2: {Kind: KindNAT, Value: f64(5.5)},
	}

	res := Grade(questions, answers, 0.25)

	if res.TotalScore != 5 {
		t.Fatalf("expected total 5, got=%v", res.TotalScore)
	}
	if res.Percentage != 100 {
		t.Fatalf("expected percentage 100, got=%v", res.Percentage)
	}
	if res.CorrectCount != 2 || res.WrongCount != 0 || res.SkippedCount != 0 {
		t.Fatalf("unexpected counts: correct=%d wrong=%d skipped=%d",
			res.CorrectCount, res.WrongCount, res.SkippedCount)
	}
}

func TestGradeFloorNeverNegative(t *testing.T) {
	questions := []Question{
		{ID: 1, Type: KindMCQ, Marks: 1, CorrectAnswer: mcqKey("A")},
		{ID: 2, Type: KindMCQ, Marks: 1, CorrectAnswer: mcqKey("A")},
		{ID: 3, Type: KindMCQ, Marks: 1, CorrectAnswer: mcqKey("A")},
	}
	answers := map[uint]Payload{
		1: mcqKey("B"),
		2: mcqKey("B"),
		3: mcqKey("B"),
	}

	res := Grade(questions, answers, 1)
	if res.TotalScore != 0 {
		t.Fatalf("expected floored total 0, got=%v", res.TotalScore)
	}
	if res.Percentage != 0 {
		t.Fatalf("expected percentage 0, got=%v", res.Percentage)
	}
}

func TestPercentageRounding(t *testing.T) {
	tests := []struct {
		name  string
		total float64
		max   float64
		want  float64
	}{
		{name: "two thirds", total: 2, max: 3, want: 66.67},
		{name: "one third", total: 1, max: 3, want: 33.33},
		{name: "full marks", total: 5, max: 5, want: 100},
		{name: "zero max score", total: 0, max: 0, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Percentage(tc.total, tc.max); got != tc.want {
				t.Fatalf("expected %v, got=%v", tc.want, got)
			}
		})
	}
}

// 存储的 totalScore/maxScore 重算百分比必须与判分时一致。
func TestPercentageRoundTrip(t *testing.T) {
	questions := []Question{
		{ID: 1, Type: KindMCQ, Marks: 2, CorrectAnswer: mcqKey("A")},
		{ID: 2, Type: KindMCQ, Marks: 3, CorrectAnswer: mcqKey("A")},
		{ID: 3, Type: KindMCQ, Marks: 4, CorrectAnswer: mcqKey("A")},
	}
	answers := map[uint]Payload{
		1: mcqKey("A"),
		2: mcqKey("B"),
		3: mcqKey("A"),
	}

	res := Grade(questions, answers, 0.25)
	if got := Percentage(res.TotalScore, res.MaxScore); got != res.Percentage {
		t.Fatalf("recomputed percentage %v differs from graded %v", got, res.Percentage)
	}
}

func TestGradeDeterministic(t *testing.T) {
	questions := []Question{
		{ID: 1, Type: KindMSQ, Marks: 4, CorrectAnswer: msqKey("A", "C")},
		{ID: 2, Type: KindNAT, Marks: 2, CorrectAnswer: natKey(3.14, 0.01)},
	}
	answers := map[uint]Payload{
		1: msqKey("C", "A"),
		2: {Kind: KindNAT, Value: f64(3.15)},
	}

	first := Grade(questions, answers, 0.5)
	for i := 0; i < 10; i++ {
		again := Grade(questions, answers, 0.5)
		if again.TotalScore != first.TotalScore || again.Percentage != first.Percentage {
			t.Fatalf("grading is not deterministic: %v vs %v", again, first)
		}
	}
}

func TestGroupOutcomes(t *testing.T) {
	outcomes := []Outcome{
		{QuestionID: 1, Answered: true, IsCorrect: true, MarksAwarded: 2},
		{QuestionID: 2, Answered: true, IsCorrect: false, MarksAwarded: -0.5},
		{QuestionID: 3, Answered: true, IsCorrect: true, MarksAwarded: 2},
		{QuestionID: 4},
		{QuestionID: 5, Answered: true, IsCorrect: true, MarksAwarded: 3},
	}

	groups := GroupOutcomes(outcomes)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got=%d", len(groups))
	}

	total := 0
	seen := make(map[uint]bool)
	for _, g := range groups {
		for _, id := range g.QuestionIDs {
			if seen[id] {
				t.Fatalf("question %d appears in more than one group", id)
			}
			seen[id] = true
			total++
		}
	}
	if total != 4 {
		t.Fatalf("expected 4 answered questions across groups, got=%d", total)
	}
	if seen[4] {
		t.Fatal("skipped question must not be grouped")
	}

	if groups[0].IsCorrect != true || groups[0].MarksAwarded != 2 || len(groups[0].QuestionIDs) != 2 {
		t.Fatalf("unexpected first group: %+v", groups[0])
	}
}

func TestGroupOutcomesBoundedByDistinctValues(t *testing.T) {
	// 50 道同分值题全部答对，批量写只应产生 1 组
	outcomes := make([]Outcome, 0, 50)
	for i := uint(1); i <= 50; i++ {
		outcomes = append(outcomes, Outcome{QuestionID: i, Answered: true, IsCorrect: true, MarksAwarded: 2})
	}
	groups := GroupOutcomes(outcomes)
	if len(groups) != 1 {
		t.Fatalf("expected a single group, got=%d", len(groups))
	}
	if len(groups[0].QuestionIDs) != 50 {
		t.Fatalf("expected 50 question ids, got=%d", len(groups[0].QuestionIDs))
	}
}

func TestGradeNilValueNAT(t *testing.T) {
	questions := []Question{{ID: 1, Type: KindNAT, Marks: 2, CorrectAnswer: natKey(1, 0)}}
	res := Grade(questions, map[uint]Payload{1: {Kind: KindNAT}}, 0)
	if res.Outcomes[0].IsCorrect {
		t.Fatal("missing numeric value must be wrong")
	}
}

func TestGradeFractionalPenalty(t *testing.T) {
	questions := []Question{{ID: 1, Type: KindMCQ, Marks: 3, CorrectAnswer: mcqKey("A")}}
	res := Grade(questions, map[uint]Payload{1: mcqKey("B")}, 1.0/3.0)
	if math.Abs(res.Outcomes[0].MarksAwarded+1) > 1e-9 {
		t.Fatalf("expected penalty -1, got=%v", res.Outcomes[0].MarksAwarded)
	}
}
