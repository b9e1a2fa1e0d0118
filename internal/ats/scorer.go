package ats

import (
	"math"
	"regexp"
	"strings"

	"careerpilot/internal/resume"
)

// 各类别的固定分值预算，合计 100。
const (
	keywordBudget    = 30
	softSkillBudget  = 28
	industryBudget   = 20
	formattingBudget = 22
)

// ScoreResult 是一次 ATS 匹配评分的结果。
// 三个 Match 字段是该类别得分占类别预算的百分比（四舍五入取整）；
// OverallScore 是各类别得分之和（不做重新归一化），上限 100。
type ScoreResult struct {
	OverallScore       int      `json:"overallScore"`
	KeywordMatch       int      `json:"keywordMatch"`
	SoftSkillsMatch    int      `json:"softSkillsMatch"`
	IndustryTermsMatch int      `json:"industryTermsMatch"`
	FormattingErrors   []string `json:"formattingErrors"`
}

// Scorer 计算结构化简历与职位描述的匹配度。无状态，可并发使用。
type Scorer struct{}

// NewScorer 构造 Scorer。
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score 对简历与职位描述做一次评分。每次请求重新计算，不做缓存。
func (s *Scorer) Score(r resume.StructuredResume, jobDescription string) ScoreResult {
	resumeText := flattenResume(r)

	keywordPts, keywordPct := categoryScoreAgainst(resumeText, jobDescription, hardSkillTerms, keywordBudget)
	softPts, softPct := categoryScoreAgainst(resumeText, jobDescription, softSkillTerms, softSkillBudget)
	industryPts, industryPct := categoryScoreAgainst(resumeText, jobDescription, industryTerms, industryBudget)

	formatErrs := formattingIssues(r)
	formatPts := formattingPoints(len(formatErrs))

	overall := keywordPts + softPts + industryPts + formatPts
	if overall > 100 {
		overall = 100
	}

	return ScoreResult{
		OverallScore:       overall,
		KeywordMatch:       keywordPct,
		SoftSkillsMatch:    softPct,
		IndustryTermsMatch: industryPct,
		FormattingErrors:   formatErrs,
	}
}

// categoryScoreAgainst 先从 JD 提取类别词集，再统计简历命中数。
func categoryScoreAgainst(resumeText, jobDescription string, dictionary []string, budget int) (points, percent int) {
	jdTerms := termsInText(jobDescription, dictionary)
	matched := len(termsInText(resumeText, jdTerms))
	return categoryScore(budget, matched, len(jdTerms))
}

// categoryScore 把命中比例折算为类别得分与展示百分比。
// 所有展示值统一四舍五入（round half up），避免离散边界上的抖动。
func categoryScore(budget, matched, total int) (points, percent int) {
	if total == 0 {
		return 0, 0
	}
	points = roundHalfUp(float64(budget) * float64(matched) / float64(total))
	percent = roundHalfUp(float64(points) / float64(budget) * 100)
	return points, percent
}

func formattingPoints(errorCount int) int {
	total := len(formattingChecks)
	passed := total - errorCount
	if passed < 0 {
		passed = 0
	}
	return roundHalfUp(float64(formattingBudget) * float64(passed) / float64(total))
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

var phonePattern = regexp.MustCompile(`\d{3}[-.\s]?\d{3,4}[-.\s]?\d{2,4}`)

type formattingCheck struct {
	message string
	passes  func(r resume.StructuredResume) bool
}

// 结构性检查独立于计分：未通过的项只进入 FormattingErrors 列表，
// 通过比例折算为 formatting 预算内的得分。
var formattingChecks = []formattingCheck{
	{"missing name", func(r resume.StructuredResume) bool {
		return strings.TrimSpace(r.Name) != ""
	}},
	{"missing phone number", func(r resume.StructuredResume) bool {
		return phonePattern.MatchString(r.ContactInfo)
	}},
	{"missing email address", func(r resume.StructuredResume) bool {
		return strings.Contains(r.ContactInfo, "@")
	}},
	{"missing professional summary", func(r resume.StructuredResume) bool {
		return strings.TrimSpace(r.Summary) != ""
	}},
	{"no recognizable resume sections", func(r resume.StructuredResume) bool {
		return len(r.Skills)+len(r.Experience)+len(r.Education) > 0
	}},
}

func formattingIssues(r resume.StructuredResume) []string {
	issues := []string{}
	for _, check := range formattingChecks {
		if !check.passes(r) {
			issues = append(issues, check.message)
		}
	}
	return issues
}

// flattenResume 汇总参与关键词匹配的简历文本：
// 技能、概要以及每段经历的公司/职位/职责。
func flattenResume(r resume.StructuredResume) string {
	var sb strings.Builder
	sb.WriteString(r.Summary)
	sb.WriteString("\n")
	sb.WriteString(strings.Join(r.Skills, "\n"))
	sb.WriteString("\n")
	for _, exp := range r.Experience {
		sb.WriteString(exp.Company)
		sb.WriteString(" ")
		sb.WriteString(exp.Role)
		sb.WriteString("\n")
		sb.WriteString(strings.Join(exp.Responsibilities, "\n"))
		sb.WriteString("\n")
	}
	return sb.String()
}
