package slack

import (
	"regexp"
)

// 用户提及语法：<@ID> 或 <@ID|displayname>（displayname可为空）
var mentionPattern = regexp.MustCompile(`^<@(.+?)(\|.*)?>$`)

// NormalizeID 提取提及语法中的用户ID；非提及格式原样返回
func NormalizeID(raw string) string {
	if raw == "" {
		return raw
	}

	if match := mentionPattern.FindStringSubmatch(raw); match != nil {
		return match[1]
	}

	return raw
}
