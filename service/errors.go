package service

import "errors"

// Các lỗi nghiệp vụ của orchestrator. Handler chỉ map từ đây ra HTTP,
// không bao giờ thấy lỗi thô của gorm hay của cổng thanh toán.
var (
	ErrOrderNotPending     = errors.New("đơn hàng không ở trạng thái chờ thanh toán")
	ErrOrderNotConfirmed   = errors.New("đơn hàng chưa được xác nhận")
	ErrOrderNotCompletable = errors.New("đơn hàng chưa thể hoàn tất ở trạng thái hiện tại")
	ErrOrderNotCancellable = errors.New("đơn hàng không thể hủy ở trạng thái hiện tại")
	ErrOrderNotOwned       = errors.New("đơn hàng không thuộc về khách hàng này")
	ErrTransactionMismatch = errors.New("giao dịch không thuộc đơn hàng này")
	ErrPaymentProvider     = errors.New("cổng thanh toán gặp lỗi")
	ErrRefundFailed        = errors.New("hoàn tiền thất bại")
	ErrUnknownMethod       = errors.New("phương thức thanh toán không được hỗ trợ")
	ErrItemUnavailable     = errors.New("sản phẩm hoặc dịch vụ không khả dụng")
	ErrSlotRequired        = errors.New("dịch vụ phải kèm khung giờ")
	ErrSlotInPast          = errors.New("khung giờ đã qua, không thể đặt")
	ErrVoucherInvalid      = errors.New("voucher không hợp lệ hoặc đã dùng")
	ErrVoucherExpired      = errors.New("voucher đã hết hạn")
	ErrVoucherApplied      = errors.New("đơn hàng đã áp dụng voucher")
)
