package copywriter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ds124wfegd/promostudio/internal/entity"
)

const (
	DefaultVariants = 3
	MaxVariants     = 5
	DefaultLanguage = "ko"
)

const promoTemplate = `다음 정보를 참고해서 매장 홍보문구를 만들어줘. 출력은 **%s**로, 총 %d개.
반드시 아래 JSON 스키마 형식 그대로만 반환해.

매장 정보
- 이름: %s
- 톤/무드: %s
- 설명: %s
- %s
- 첨부 이미지: 매장/메뉴 사진 (문맥에 자연스럽게 반영)

반환 형식 (JSON만, 코드펜스/문장 금지)
{
  "variants": [
    {
      "headline": "짧은 한 줄 헤드라인",
      "body": "6~8문장 본문. 매장/메뉴 특징과 위치 맥락을 반영.",
      "tags": ["#해시태그", "#지역", "#메뉴"],
      "cta": "방문/예약/주문을 유도하는 한 문장"
    }
  ]
}`

// ClampVariants keeps the requested variant count within 1..5.
func ClampVariants(n int) int {
	return min(max(n, 1), MaxVariants)
}

// BuildPromoPrompt renders the promo instruction for the text model.
func BuildPromoPrompt(req entity.PromoRequest) string {
	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = DefaultLanguage
	}
	description := strings.TrimSpace(req.StoreDescription)
	if description == "" {
		description = "없음"
	}

	return fmt.Sprintf(promoTemplate,
		language,
		ClampVariants(req.Variants),
		req.StoreName,
		req.Mood,
		description,
		locationLine(req),
	)
}

func locationLine(req entity.PromoRequest) string {
	var bits []string
	if loc := strings.TrimSpace(req.LocationText); loc != "" {
		bits = append(bits, "주소/지역: "+loc)
	}
	if req.Latitude != nil && req.Longitude != nil {
		bits = append(bits, fmt.Sprintf("좌표: %s, %s",
			strconv.FormatFloat(*req.Latitude, 'f', -1, 64),
			strconv.FormatFloat(*req.Longitude, 'f', -1, 64)))
	}
	if len(bits) == 0 {
		return "위치 정보 없음"
	}
	return strings.Join(bits, " / ")
}
