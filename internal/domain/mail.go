package domain

// NotificationMessage 通过消息队列投递给 notify worker 的通知。
type NotificationMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

// DecisionMailData 审批结果通知邮件的数据。
type DecisionMailData struct {
	FullName  string `json:"fullName"`
	PlantName string `json:"plantName"`
	Date      string `json:"date"`
	Decision  string `json:"decision"`
	Note      string `json:"note"`
	IsAdjust  bool   `json:"isAdjust"`
	DecidedBy string `json:"decidedBy"`
	RecordID  int64  `json:"recordID"`
}
