package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"careerpilot/internal/resume"
)

// 系统角色指令模板。保持固定措辞，便于对生成质量做回归比较。
const (
	systemPromptResume = `You are an expert resume writer with a strict commitment to honesty.
Never invent skills or experience that is not present in the provided data.
Produce clean, professional resume content tailored to the target position.`

	systemPromptEnhance = `You are an expert resume editor.
Improve wording, impact and ATS keyword coverage of the provided resume
without inventing any new facts. Keep the candidate's voice.`

	systemPromptCoverLetter = `You are an expert career coach writing cover letters.
Ground every statement in the provided resume data.
Write a focused, personable letter addressed to the target company.`
)

const (
	userPromptResume = `Generate a resume for the following candidate.

Candidate data:
%s

Target job description:
%s
%s`

	userPromptEnhance = `Enhance the following resume for the target position.

Current resume:
%s

Target job description:
%s
%s`

	userPromptCoverLetter = `Write a cover letter for the following candidate.

Candidate data:
%s

Target position: %s at %s

Job description:
%s
%s`
)

// resumePayload 是送往生成服务的简历表示。
// 与 StructuredResume 的区别：裁剪后的空数组会整体缺失（omitempty），
// 经历的起止时间折叠为一个展示字符串。
type resumePayload struct {
	Name           string              `json:"name,omitempty"`
	ContactInfo    string              `json:"contactInfo,omitempty"`
	Summary        string              `json:"summary,omitempty"`
	Skills         []string            `json:"skills,omitempty"`
	Experience     []experiencePayload `json:"experience,omitempty"`
	Education      []educationPayload  `json:"education,omitempty"`
	Certifications []string            `json:"certifications,omitempty"`
}

type experiencePayload struct {
	Company          string   `json:"company,omitempty"`
	Role             string   `json:"role,omitempty"`
	Dates            string   `json:"dates,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
}

type educationPayload struct {
	Institution    string `json:"institution,omitempty"`
	Degree         string `json:"degree,omitempty"`
	GraduationYear string `json:"graduationYear,omitempty"`
}

// newResumePayload 从裁剪后的结构化简历构造提供方负载。
func newResumePayload(r resume.StructuredResume) resumePayload {
	payload := resumePayload{
		Name:        r.Name,
		ContactInfo: r.ContactInfo,
		Summary:     r.Summary,
		Skills:      r.Skills,
	}

	for _, exp := range r.Experience {
		payload.Experience = append(payload.Experience, experiencePayload{
			Company:          exp.Company,
			Role:             exp.Role,
			Dates:            resume.FormatDateRange(exp.StartDate, exp.EndDate),
			Responsibilities: exp.Responsibilities,
		})
	}
	for _, edu := range r.Education {
		payload.Education = append(payload.Education, educationPayload{
			Institution:    edu.Institution,
			Degree:         edu.Degree,
			GraduationYear: edu.GraduationYear,
		})
	}
	for _, cert := range r.Certifications {
		entry := cert.Name
		if cert.Year != "" {
			entry = fmt.Sprintf("%s (%s)", cert.Name, cert.Year)
		}
		payload.Certifications = append(payload.Certifications, entry)
	}

	return payload
}

func marshalResume(r resume.StructuredResume) (string, error) {
	raw, err := json.MarshalIndent(newResumePayload(r), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal resume payload: %w", err)
	}
	return string(raw), nil
}

// renderPreferences 把定制偏好渲染为提示词尾部的说明段。
func renderPreferences(p Preferences) string {
	var parts []string
	if p.Tone != "" {
		parts = append(parts, "Tone: "+p.Tone)
	}
	if p.Length != "" {
		parts = append(parts, "Length: "+p.Length)
	}
	if len(p.FocusAreas) > 0 {
		parts = append(parts, "Focus areas: "+strings.Join(p.FocusAreas, ", "))
	}
	if len(parts) == 0 {
		return ""
	}
	return "\nPreferences:\n" + strings.Join(parts, "\n")
}
