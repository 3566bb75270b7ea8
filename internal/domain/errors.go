package domain

import "errors"

// ErrAlreadyRecorded 由存储层在补卡事务内返回：当天已存在考勤记录。
var ErrAlreadyRecorded = errors.New("当天已存在考勤记录")
