package config

import "fmt"

// Option 下拉框的一项：显示文本 + 对应的取值
type Option[T any] struct {
	Label string `json:"label" yaml:"label"`
	Value T      `json:"value" yaml:"value"`
}

// OptionList 保持插入顺序的选项列表
type OptionList[T comparable] []Option[T]

// ValueOf 按显示文本查找取值
func (l OptionList[T]) ValueOf(label string) (T, bool) {
	for _, o := range l {
		if o.Label == label {
			return o.Value, true
		}
	}
	var zero T
	return zero, false
}

// LabelOf 按取值反查显示文本
func (l OptionList[T]) LabelOf(v T) (string, bool) {
	for _, o := range l {
		if o.Value == v {
			return o.Label, true
		}
	}
	return "", false
}

func (l OptionList[T]) Values() []T {
	out := make([]T, 0, len(l))
	for _, o := range l {
		out = append(out, o.Value)
	}
	return out
}

// Validate 显示文本不能为空也不能重复
func (l OptionList[T]) Validate() error {
	seen := make(map[string]int, len(l))
	for i, o := range l {
		if o.Label == "" {
			return invalid("option %d has empty label", i)
		}
		if j, dup := seen[o.Label]; dup {
			return invalid("option %d duplicates label %q of option %d", i, o.Label, j)
		}
		seen[o.Label] = i
	}
	return nil
}

var standardBaudRates = []int{
	300, 600, 1200, 2400, 4800, 9600, 14400, 19200, 38400, 57600, 115200, 230400, 460800, 921600,
}

// BaudRateOptions 常用波特率
var BaudRateOptions = func() OptionList[int] {
	l := make(OptionList[int], 0, len(standardBaudRates))
	for _, b := range standardBaudRates {
		l = append(l, Option[int]{Label: fmt.Sprint(b), Value: b})
	}
	return l
}()

var FormatOptions = OptionList[Format]{
	{Label: "Text", Value: FormatText},
	{Label: "Hex", Value: FormatHex},
}

var DataBitsOptions = OptionList[int]{
	{Label: "5", Value: 5},
	{Label: "6", Value: 6},
	{Label: "7", Value: 7},
	{Label: "8", Value: 8},
}

var StopBitsOptions = OptionList[int]{
	{Label: "1", Value: 1},
	{Label: "2", Value: 2},
}

var ParityOptions = OptionList[Parity]{
	{Label: string(ParityNone), Value: ParityNone},
	{Label: string(ParityOdd), Value: ParityOdd},
	{Label: string(ParityEven), Value: ParityEven},
	{Label: string(ParityMark), Value: ParityMark},
	{Label: string(ParitySpace), Value: ParitySpace},
}

var FlowControlOptions = OptionList[FlowControl]{
	{Label: string(FlowControlNone), Value: FlowControlNone},
	{Label: string(FlowControlSoftware), Value: FlowControlSoftware},
	{Label: string(FlowControlHardware), Value: FlowControlHardware},
}
