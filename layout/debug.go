package layout

import (
	"encoding/json"
	"io"
)

// DebugReport 是调试 JSON 的顶层结构：布局结果加上页面流的最终状态。
type DebugReport struct {
	ExportID string        `json:"exportId,omitempty"`
	Flow     PageFlowState `json:"flow"`
	Result   *Result       `json:"result"`
}

// EncodeDebugJSON 将调试报告写入 w，便于调试或可视化。
func EncodeDebugJSON(w io.Writer, report DebugReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
