// =============================================================================
// 📦 测试数据工厂 - 客户记录与模型输出
// =============================================================================
package fixtures

import (
	"encoding/json"

	"github.com/BaSui01/retainflow/types"
)

// Sarah 是一位有 Care+ 订阅的高级客户
func Sarah() types.CustomerRecord {
	return types.CustomerRecord{
		Found:               true,
		CustomerID:          "CUST_001",
		Email:               "sarah.j@email.com",
		Phone:               "555-0101",
		Name:                "Sarah Johnson",
		PlanType:            "Care+ Premium",
		MonthlyCharge:       12.99,
		SignupDate:          "2023-01-15",
		Status:              types.StatusActive,
		TotalSpent:          155.88,
		SupportTicketsCount: 2,
		AccountHealthScore:  85,
		TenureMonths:        12,
		Tier:                "premium",
		Device:              "iPhone 15 Pro",
		PurchaseDate:        "2023-01-15",
	}
}

// Mike 是一位基础等级客户
func Mike() types.CustomerRecord {
	return types.CustomerRecord{
		Found:         true,
		CustomerID:    "CUST_002",
		Email:         "mike.chen@email.com",
		Name:          "Mike Chen",
		PlanType:      "Care+ Basic",
		MonthlyCharge: 6.99,
		Status:        types.StatusActive,
		TenureMonths:  3,
		Tier:          "basic",
		Device:        "Samsung Galaxy S24",
	}
}

// IntentJSON 返回分类器格式的模型输出
func IntentJSON(intent types.Intent, confidence float64) string {
	b, _ := json.Marshal(map[string]any{
		"intent":     intent,
		"confidence": confidence,
		"reasoning":  "fixture",
	})
	return string(b)
}
