package resume

import "strings"

const placeholderMarker = "placeholder"

// PruneForProvider 返回送往外部生成服务前的裁剪副本：
// skills/education/certifications 若所有元素均为空或占位内容，
// 则整个数组置空（序列化时省略），而不是只剔除个别元素。
// 原始简历不被修改。
func PruneForProvider(r StructuredResume) StructuredResume {
	out := r

	if !anySkillMeaningful(r.Skills) {
		out.Skills = nil
	}
	if !anyEducationMeaningful(r.Education) {
		out.Education = nil
	}
	if !anyCertificationMeaningful(r.Certifications) {
		out.Certifications = nil
	}

	return out
}

func isPlaceholder(s string) bool {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return true
	}
	return strings.Contains(strings.ToLower(trimmed), placeholderMarker)
}

func anySkillMeaningful(skills []string) bool {
	for _, s := range skills {
		if !isPlaceholder(s) {
			return true
		}
	}
	return false
}

func anyEducationMeaningful(entries []Education) bool {
	for _, e := range entries {
		if !isPlaceholder(e.Institution) || !isPlaceholder(e.Degree) {
			return true
		}
	}
	return false
}

func anyCertificationMeaningful(entries []Certification) bool {
	for _, c := range entries {
		if !isPlaceholder(c.Name) {
			return true
		}
	}
	return false
}

// FormatDateRange 渲染经历的起止时间：
// 两端有效时返回 "start to end"，缺失结束时间时只返回开始时间，
// 开始时间缺失时统一返回 "N/A"。
// 字面量 "null"/"undefined" 视为缺失（历史数据里确实出现过）。
func FormatDateRange(start, end string) string {
	if isMissingDate(start) {
		return "N/A"
	}
	if isMissingDate(end) {
		return start
	}
	return start + " to " + end
}

func isMissingDate(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "null", "undefined":
		return true
	}
	return false
}
