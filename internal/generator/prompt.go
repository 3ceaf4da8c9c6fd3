package generator

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/exemplar/internal/domain"
)

const generationTemplate = `请根据以下需求生成一个编程题目，要求格式如下：

题目名称：[题目的简洁名称]

题目描述：[详细的题目描述，包括问题背景、输入输出格式说明]

测试用例：[提供3-5个测试用例，每个用例包含输入和输出，格式为：
输入1：[具体输入]
输出1：[具体输出]
输入2：[具体输入]
输出2：[具体输出]
...]

预期输出：[对于给定测试用例的完整预期输出]

难度：[easy/medium/hard]

用户需求：`

const validationTemplate = `请检查以下编程题目信息是否完整、正确和合理：

题目名称：%s
题目描述：%s
测试用例：%s
预期输出：%s
难度：%s

请从以下几个方面进行检查：
1. 题目描述是否清晰完整
2. 测试用例是否覆盖了主要情况
3. 预期输出是否与测试用例匹配
4. 难度设置是否合理
5. 是否存在逻辑错误或矛盾

如果有问题，请指出具体问题和建议的修改方案。如果没有问题，请回复"验证通过"。`

// passMarker is the phrase a clean validation answer contains
const passMarker = "验证通过"

// BuildPrompt returns the generation prompt for the given requirements
func BuildPrompt(requirements string) string {
	return generationTemplate + strings.TrimSpace(requirements)
}

// BuildValidationPrompt asks the generator to review a draft
func BuildValidationPrompt(d domain.ProblemDraft) string {
	return fmt.Sprintf(validationTemplate, d.Title, d.Description, d.CasesText, d.ExpectedOutput, d.Difficulty)
}
