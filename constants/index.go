package constants

const (
	ROLE_ADMIN   = "ADMIN"
	ROLE_MANAGER = "MANAGER"
	ROLE_STAFF   = "STAFF"
)

const (
	ERROR_INPUT                = "Dữ liệu không hợp lệ"
	DATA_INPUT_IS_NOT_NUMBER   = "Tham số phải là số"
	NOT_ADMIN                  = "Không có quyền thực hiện thao tác này"
	NOT_FOUND                  = "Không tìm thấy dữ liệu"
	ERROR_INTERNAL_ERROR       = "Lỗi hệ thống"
	MISSING_LOGIN_INPUT        = "Thiếu thông tin đăng nhập"
	INVALID_USERNAME           = "Tên đăng nhập không tồn tại"
	INVALID_PASSWORD           = "Mật khẩu không đúng"
	ACCOUNT_NOT_ACTIVE         = "Tài khoản đã bị khóa"
	CAN_NOT_HASH_PASSWORD      = "Không thể mã hóa mật khẩu"
	ERROR_PARSE_DATA_TO_LOCALS = "Lỗi parse dữ liệu"
)

// Tích điểm: 1 điểm cho mỗi 10.000đ thanh toán thành công
const REWARD_POINT_UNIT = 10000

const CURRENCY_VND = "VND"
