package youku

import (
	"fmt"
	"strconv"
	"strings"
)

// DescriptorError 表示紧凑描述 "id:<id>;length:<n>" 格式不正确
type DescriptorError struct {
	Descriptor string
	Reason     string
}

func (e *DescriptorError) Error() string {
	return fmt.Sprintf("invalid source descriptor %q: %s", e.Descriptor, e.Reason)
}

// ParseDescriptor 解析 "id:<id>;length:<n>"。
// 以 ";" 分段（忽略空段），每段第一个 ":" 之前为字段名，未知字段忽略。
func ParseDescriptor(descriptor string) (id string, length int, err error) {
	fields := make(map[string]string)
	for _, part := range strings.Split(descriptor, ";") {
		if part == "" {
			continue
		}
		idx := strings.Index(part, ":")
		if idx < 0 {
			return "", 0, &DescriptorError{Descriptor: descriptor, Reason: fmt.Sprintf("field %q has no ':'", part)}
		}
		key := strings.TrimSpace(part[:idx])
		if _, dup := fields[key]; dup {
			return "", 0, &DescriptorError{Descriptor: descriptor, Reason: "duplicate field " + key}
		}
		fields[key] = strings.TrimSpace(part[idx+1:])
	}

	id, ok := fields["id"]
	if !ok || id == "" {
		return "", 0, &DescriptorError{Descriptor: descriptor, Reason: "missing id"}
	}
	raw, ok := fields["length"]
	if !ok {
		return "", 0, &DescriptorError{Descriptor: descriptor, Reason: "missing length"}
	}
	length, convErr := strconv.Atoi(raw)
	if convErr != nil || length < 0 {
		return "", 0, &DescriptorError{Descriptor: descriptor, Reason: fmt.Sprintf("bad length %q", raw)}
	}
	return id, length, nil
}
