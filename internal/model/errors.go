package model

import "errors"

// ErrNotFound 表示查找未命中
// 未命中是正常结果，与瞬时故障（连接失败、超时等）严格区分：
// 两层存储都用它表示"不存在"，其他错误一律视为查询失败向上传递
var ErrNotFound = errors.New("record not found")
