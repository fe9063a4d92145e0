package workflow

import "github.com/BaSui01/retainflow/types"

const (
	technicalReferral = `I can see you're having a technical issue with your device.
Let me connect you with our Technical Support team who can help you troubleshoot this.

You can reach them at:
• Phone: 1-800-TECHFLOW (option 2)
• Live Chat: techflow.com/support
• Email: techsupport@techflow.com

They're available 24/7 and can help resolve your device issues. Is there anything else I can help with before I transfer you?`

	billingReferral = `I understand you have a billing question.
Let me connect you with our Billing team who can assist you with this.

You can reach them at:
• Phone: 1-800-TECHFLOW (option 3)
• Email: billing@techflow.com
• Online: Log into your account at techflow.com/billing

Is there anything else I can help with?`

	defaultReferral = "Let me transfer you to the right department."
)

// ReferralMessage returns the fixed hand-off text for an external intent.
func ReferralMessage(intent types.Intent) string {
	switch intent {
	case types.IntentTechnical:
		return technicalReferral
	case types.IntentBilling:
		return billingReferral
	}
	return defaultReferral
}

// NextNode maps a classified intent to the node that handles it.
func NextNode(intent types.Intent) Node {
	switch intent {
	case types.IntentCancellation:
		return NodeRetention
	case types.IntentTechnical, types.IntentBilling:
		return NodeExternal
	}
	return NodeOrchestrator
}
