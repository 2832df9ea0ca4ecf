package grading

import "math"

// Question 是判分引擎的输入视图，由调用方从存量题目行构造，
// CorrectAnswer 已在边界解析为载荷。
type Question struct {
	ID            uint
	Type          string
	Marks         float64
	CorrectAnswer Payload
}

// Outcome 为单题判分结果。Answered=false 表示未作答（跳过），
// 跳过不计分也不扣分。
type Outcome struct {
	QuestionID   uint
	Answered     bool
	IsCorrect    bool
	MarksAwarded float64
}

type Result struct {
	Outcomes []Outcome

	TotalScore   float64
	MaxScore     float64
	Percentage   float64
	CorrectCount int
	WrongCount   int
	SkippedCount int
}

// Grade 对一次提交做确定性判分：纯函数，只依赖入参。
// 答错按 negativeRatio×分值 倒扣，总分向下以 0 封底。
func Grade(questions []Question, answers map[uint]Payload, negativeRatio float64) Result {
	res := Result{Outcomes: make([]Outcome, 0, len(questions))}

	total := 0.0
	for _, q := range questions {
		res.MaxScore += q.Marks

		submitted, ok := answers[q.ID]
		if !ok {
			res.SkippedCount++
			res.Outcomes = append(res.Outcomes, Outcome{QuestionID: q.ID})
			continue
		}

		if q.CorrectAnswer.matches(submitted) {
			res.CorrectCount++
			total += q.Marks
			res.Outcomes = append(res.Outcomes, Outcome{
				QuestionID:   q.ID,
				Answered:     true,
				IsCorrect:    true,
				MarksAwarded: q.Marks,
			})
			continue
		}

		penalty := negativeRatio * q.Marks
		res.WrongCount++
		total -= penalty
		res.Outcomes = append(res.Outcomes, Outcome{
			QuestionID:   q.ID,
			Answered:     true,
			MarksAwarded: -penalty,
		})
	}

	if total < 0 {
		total = 0
	}
	res.TotalScore = total
	res.Percentage = Percentage(total, res.MaxScore)
	return res
}

// Percentage 返回保留两位小数的百分比，四舍五入；满分为 0 时返回 0。
func Percentage(total, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return math.Round(total/max*10000) / 100
}

// OutcomeGroup 聚合判分结果相同的题目，批量写库时每组只发一条更新。
type OutcomeGroup struct {
	IsCorrect    bool
	MarksAwarded float64
	QuestionIDs  []uint
}

// GroupOutcomes 按 (isCorrect, marksAwarded) 归并已作答题目的结果，
// 写库次数由此被限制在不同结果值的数量内，而不是题目数量。
// 未作答的题目没有答案行，不参与分组。
func GroupOutcomes(outcomes []Outcome) []OutcomeGroup {
	type key struct {
		correct bool
		marks   float64
	}
	index := make(map[key]int)
	groups := make([]OutcomeGroup, 0)
	for _, o := range outcomes {
		if !o.Answered {
			continue
		}
		k := key{correct: o.IsCorrect, marks: o.MarksAwarded}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, OutcomeGroup{IsCorrect: o.IsCorrect, MarksAwarded: o.MarksAwarded})
		}
		groups[i].QuestionIDs = append(groups[i].QuestionIDs, o.QuestionID)
	}
	return groups
}
