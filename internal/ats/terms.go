package ats

import "strings"

// 三类词表：职位描述先与词表求交得到该 JD 的类别词集，
// 再用简历文本对类别词集做匹配计分。
var hardSkillTerms = []string{
	"go", "golang", "python", "java", "javascript", "typescript", "rust",
	"sql", "postgresql", "mysql", "redis", "mongodb", "kafka",
	"docker", "kubernetes", "terraform", "aws", "gcp", "azure",
	"react", "node.js", "grpc", "rest", "graphql", "linux", "git",
	"ci/cd", "prometheus", "grafana", "elasticsearch",
}

var softSkillTerms = []string{
	"communication", "leadership", "teamwork", "collaboration",
	"problem solving", "adaptability", "mentoring", "ownership",
	"time management", "attention to detail", "critical thinking",
	"initiative", "creativity", "empathy", "negotiation", "presentation",
}

var industryTerms = []string{
	"agile", "scrum", "devops", "microservices", "saas", "fintech",
	"e-commerce", "machine learning", "data pipeline", "observability",
	"distributed systems", "cloud native", "security", "compliance",
}

// termsInText 返回词表中出现在文本里的词（大小写不敏感的子串匹配）。
func termsInText(text string, terms []string) []string {
	lower := strings.ToLower(text)
	matched := make([]string, 0, len(terms))
	for _, term := range terms {
		if strings.Contains(lower, term) {
			matched = append(matched, term)
		}
	}
	return matched
}
