package news

import (
	"strings"
	"time"
)

type stub struct {
	title, description, url, source string
}

var fallbackArticles = map[string][]stub{
	"entertainment": {
		{"Netflix, 올해 가격 인상 계획 발표", "넷플릭스가 2025년 프리미엄 플랜 가격 인상을 검토 중이라고 발표했습니다.", "https://example.com/news1", "테크뉴스"},
		{"디즈니 플러스, 새로운 콘텐츠 라인업 공개", "디즈니 플러스가 올해 하반기 새로운 오리지널 시리즈를 공개합니다.", "https://example.com/news2", "엔터테인먼트뉴스"},
		{"스트리밍 서비스 경쟁 심화", "OTT 시장에서 경쟁이 치열해지면서 각 서비스의 가격 정책 변화가 예상됩니다.", "https://example.com/news3", "비즈니스뉴스"},
	},
	"music": {
		{"Spotify, 새로운 음악 추천 기능 출시", "스포티파이가 AI 기반 개인화 음악 추천 기능을 강화했습니다.", "https://example.com/news4", "테크뉴스"},
		{"Apple Music, 고음질 스트리밍 확대", "애플 뮤직이 무손실 오디오 서비스를 전면 확대합니다.", "https://example.com/news5", "애플뉴스"},
	},
	"productivity": {
		{"Microsoft 365, 새로운 AI 기능 추가", "마이크로소프트 365에 코파일럿 기능이 통합되어 생산성이 향상됩니다.", "https://example.com/news6", "테크뉴스"},
		{"노션, 협업 기능 대폭 개선", "노션이 팀 협업을 위한 새로운 기능들을 추가했습니다.", "https://example.com/news7", "비즈니스뉴스"},
	},
	"cloud": {
		{"구글 드라이브, 저장 용량 요금제 변경", "구글 드라이브의 저장 용량 요금제가 새로운 구조로 변경됩니다.", "https://example.com/news8", "테크뉴스"},
		{"드롭박스, 보안 기능 강화", "드롭박스가 엔터프라이즈 보안 기능을 강화했습니다.", "https://example.com/news9", "보안뉴스"},
	},
	"ai": {
		{"ChatGPT, 새로운 기능 업데이트", "OpenAI가 ChatGPT에 새로운 멀티모달 기능을 추가했습니다.", "https://example.com/news10", "AI뉴스"},
		{"클로드 AI, 기업용 플랜 출시", "Anthropic이 클로드 AI의 기업용 플랜을 공식 출시했습니다.", "https://example.com/news11", "비즈니스뉴스"},
	},
}

var defaultFallback = []stub{
	{"구독 서비스 시장 성장", "구독 경제 시장이 지속적으로 성장하고 있습니다.", "https://example.com/news12", "경제뉴스"},
	{"디지털 서비스 트렌드", "소비자들의 디지털 서비스 구독 패턴이 변화하고 있습니다.", "https://example.com/news13", "트렌드뉴스"},
}

// Fallback returns up to pageSize canned articles for category, published
// one hour apart counting back from now.
func Fallback(category string, pageSize int, now time.Time) []Article {
	stubs, ok := fallbackArticles[strings.ToLower(category)]
	if !ok {
		stubs = defaultFallback
	}
	if pageSize < len(stubs) {
		stubs = stubs[:pageSize]
	}
	out := make([]Article, 0, len(stubs))
	for i, s := range stubs {
		out = append(out, Article{
			Title:       s.title,
			Description: s.description,
			URL:         s.url,
			PublishedAt: now.Add(-time.Duration(i) * time.Hour).Format(time.RFC3339),
			Source:      ArticleSource{Name: s.source},
		})
	}
	return out
}
