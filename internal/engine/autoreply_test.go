package engine

import "testing"

func TestAutoReplyEmptyInput(t *testing.T) {
	e := New(nil)

	for _, text := range []string{"", "   ", "\n\t"} {
		got := e.AutoReply(text)
		if got.Intent != IntentUnknown {
			t.Fatalf("AutoReply(%q) intent = %s, want unknown", text, got.Intent)
		}
		if got.Confidence != 0.2 {
			t.Fatalf("AutoReply(%q) confidence = %v, want 0.2", text, got.Confidence)
		}
		if got.Answer != clarifyAnswer {
			t.Fatalf("AutoReply(%q) answer = %q, want clarify message", text, got.Answer)
		}
	}
}

func TestAutoReplyIntents(t *testing.T) {
	cases := []struct {
		name string
		text string
		want Intent
	}{
		{"greeting", "مرحبا", IntentGreeting},
		{"greeting formal", "السلام عليكم ورحمة الله", IntentGreeting},
		{"status", "أريد معرفة حالة الطلب رقم 123", IntentStatus},
		{"payment", "كيف أسدد الفاتورة؟", IntentPayment},
		{"documents", "ما هي الوثيقة المطلوبة؟", IntentDocuments},
		{"deadline", "متى يتم إنجاز المعاملة؟", IntentDeadline},
	}

	e := New(nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.AutoReply(tc.text)
			if got.Intent != tc.want {
				t.Fatalf("AutoReply(%q) intent = %s, want %s", tc.text, got.Intent, tc.want)
			}
			if got.Confidence != 0.85 {
				t.Fatalf("AutoReply(%q) confidence = %v, want 0.85", tc.text, got.Confidence)
			}
			if got.Answer == "" {
				t.Fatalf("AutoReply(%q) returned empty answer", tc.text)
			}
		})
	}
}

func TestAutoReplyFirstMatchWins(t *testing.T) {
	e := New(nil)

	// Contains a status pattern (استعلام) and a payment pattern (دفع):
	// status is declared first, so it must win.
	got := e.AutoReply("أريد الاستعلام عن دفع الرسوم")
	if got.Intent != IntentStatus {
		t.Fatalf("intent = %s, want status (declared before payment)", got.Intent)
	}

	// Greeting plus a later-declared family: greeting is declared last,
	// so the earlier family must win when its pattern appears.
	got = e.AutoReply("مرحبا، أريد دفع الرسوم")
	if got.Intent != IntentPayment {
		t.Fatalf("intent = %s, want payment (declared before greeting)", got.Intent)
	}
}

func TestAutoReplyUnmatched(t *testing.T) {
	e := New(nil)

	got := e.AutoReply("نص عام لا يطابق أي نمط معروف هنا")
	if got.Intent != IntentUnknown {
		t.Fatalf("intent = %s, want unknown", got.Intent)
	}
	if got.Confidence != 0.5 {
		t.Fatalf("confidence = %v, want 0.5", got.Confidence)
	}
	if got.Answer != deferralAnswer {
		t.Fatalf("answer = %q, want deferral message", got.Answer)
	}
}
