package resume

// StructuredResume 表示存储在简历 Content(JSONB) 中的结构化数据，
// 同时也是 ATS 评分与提示词构造的输入。
// 约定：数组字段在规范化之后始终非 nil（可以为空），
// 只有在发送给外部生成服务前的裁剪阶段才允许整体缺失。
type StructuredResume struct {
	Name           string          `json:"name"`
	ContactInfo    string          `json:"contactInfo"`
	Summary        string          `json:"summary"`
	Skills         []string        `json:"skills"`
	Experience     []Experience    `json:"experience"`
	Education      []Education     `json:"education"`
	Certifications []Certification `json:"certifications"`
}

// Experience 表示一段工作经历。
type Experience struct {
	Company          string   `json:"company"`
	Role             string   `json:"role"`
	StartDate        string   `json:"startDate"`
	EndDate          string   `json:"endDate"`
	Responsibilities []string `json:"responsibilities"`
}

// Education 表示一段教育经历。
type Education struct {
	Institution    string `json:"institution"`
	Degree         string `json:"degree"`
	GraduationYear string `json:"graduationYear"`
}

// Certification 表示一项证书。
type Certification struct {
	Name string `json:"name"`
	Year string `json:"year"`
}
