// utils/utils.go
package utils

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// 确保目录存在
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// FileExists 判断文件或目录是否存在
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// 字符串转整数，带默认值
func StringToIntOr(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

// ReadCookie 读取 cookie 文件，忽略空行与 # 注释，多行以 "; " 拼接
func ReadCookie(cookieFile string) string {
	if cookieFile == "" {
		return ""
	}
	file, err := os.Open(cookieFile)
	if err != nil {
		return ""
	}
	defer file.Close()

	var parts []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			parts = append(parts, strings.TrimSuffix(line, ";"))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "; ") + ";"
}
