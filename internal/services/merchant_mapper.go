package services

import (
	"merchant-service/internal/domain/entities"
)

// applyRequest copies the five request fields onto m verbatim. Absent optional
// fields clear the stored value.
func applyRequest(req entities.MerchantRequest, m *entities.Merchant) {
	m.Name = req.Name
	m.Email = req.Email
	m.Phone = req.Phone
	m.BusinessName = copyString(req.BusinessName)
	m.Address = copyString(req.Address)
}

func toMerchantResponse(m entities.Merchant) entities.MerchantResponse {
	return entities.MerchantResponse{
		MerchantID:   m.MerchantID,
		Name:         m.Name,
		Email:        m.Email,
		Phone:        m.Phone,
		BusinessName: copyString(m.BusinessName),
		Address:      copyString(m.Address),
		Status:       m.Status,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toPagedResponse(page *entities.MerchantPage, req entities.PageRequest) entities.PagedResponse[entities.MerchantResponse] {
	content := make([]entities.MerchantResponse, 0, len(page.Merchants))
	for _, m := range page.Merchants {
		content = append(content, toMerchantResponse(m))
	}
	return entities.PagedResponse[entities.MerchantResponse]{
		Content:       content,
		TotalElements: page.TotalElements,
		PageNumber:    req.Page,
		PageSize:      req.Size,
		TotalPages:    entities.TotalPages(page.TotalElements, req.Size),
	}
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
