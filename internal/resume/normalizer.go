package resume

import "strings"

// SectionDetector 判断一行文本是否为小节标题。
// 独立成接口是为了将来替换更严格的标题识别策略。
type SectionDetector interface {
	Detect(line string) (section string, ok bool)
}

const (
	sectionExperience = "experience"
	sectionEducation  = "education"
	sectionSkills     = "skills"
)

// substringDetector 以大小写不敏感的子串匹配识别标题。
// 已知局限：正文中碰巧包含 "skills" 等词的行也会触发小节切换，
// 这里保持该启发式行为不做修正。
type substringDetector struct{}

func (substringDetector) Detect(line string) (string, bool) {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, sectionExperience):
		return sectionExperience, true
	case strings.Contains(lower, sectionEducation):
		return sectionEducation, true
	case strings.Contains(lower, sectionSkills):
		return sectionSkills, true
	}
	return "", false
}

// Normalizer 将抽取出的纯文本转换为结构化简历。
type Normalizer struct {
	detector SectionDetector
}

// NewNormalizer 构造使用默认子串启发式的 Normalizer。
func NewNormalizer() *Normalizer {
	return &Normalizer{detector: substringDetector{}}
}

// NewNormalizerWithDetector 构造使用自定义标题识别策略的 Normalizer。
func NewNormalizerWithDetector(d SectionDetector) *Normalizer {
	return &Normalizer{detector: d}
}

// Normalize 按行扫描文本并维护当前小节游标：
// 标题行本身被消费而不会写入内容；进入任何小节之前，
// 第一行作为姓名、第二行作为联系方式。
// 对相同输入重复调用产生结构一致的结果。
func (n *Normalizer) Normalize(plainText string) StructuredResume {
	out := StructuredResume{
		Skills:         []string{},
		Experience:     []Experience{},
		Education:      []Education{},
		Certifications: []Certification{},
	}

	section := ""
	headerLines := 0

	for _, raw := range strings.Split(plainText, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if next, ok := n.detector.Detect(line); ok {
			section = next
			continue
		}

		switch section {
		case sectionExperience:
			out.Experience = append(out.Experience, Experience{Role: line, Responsibilities: []string{}})
		case sectionEducation:
			out.Education = append(out.Education, Education{Institution: line})
		case sectionSkills:
			out.Skills = append(out.Skills, line)
		default:
			switch headerLines {
			case 0:
				out.Name = line
			case 1:
				out.ContactInfo = line
			}
			headerLines++
		}
	}

	return out
}
